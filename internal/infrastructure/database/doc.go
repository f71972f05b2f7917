// Package database provides the SQLite connection used by the X10 bridge's
// event journal.
//
// This package manages:
//   - Opening the database (WAL mode, busy timeout, single writer)
//   - Forward-only schema migrations from an fs.FS
//   - Health checks and transactional helpers
//
// The database file is created with 0600 permissions. All queries use
// parameterised statements.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database

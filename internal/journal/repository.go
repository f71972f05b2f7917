// Package journal records the X10 bridge's routing decisions in SQLite.
//
// The journal is an audit trail. Device state is never restored from it.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/x10-bridge/internal/bridges/x10"
)

// List limits.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journaled routing decision.
type Entry struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Device    string         `json:"device,omitempty"`
	House     string         `json:"house,omitempty"`
	Command   string         `json:"command,omitempty"`
	Level     *int           `json:"level,omitempty"`
	Input     string         `json:"input"`
	Actions   []ActionRecord `json:"actions"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActionRecord is the stored form of one resulting action.
type ActionRecord struct {
	Type    string   `json:"type"`
	Topic   string   `json:"topic,omitempty"`
	Payload string   `json:"payload,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// Action types.
const (
	ActionPublish = "publish"
	ActionRun     = "run"
)

// Filter controls which entries List returns.
type Filter struct {
	Source string // optional: "mqtt" or "monitor"
	Device string // optional: exact device id, e.g. "C2"
	House  string // optional: house letter
	Limit  int    // default 50, max 500
	Offset int
}

// ListResult is one page of journal entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines journal storage operations.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores entries in the x10_journal table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts e. ID and CreatedAt are generated when empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "jrn-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Actions == nil {
		e.Actions = []ActionRecord{}
	}

	detail, err := json.Marshal(e.Actions)
	if err != nil {
		return fmt.Errorf("marshalling journal actions: %w", err)
	}

	var level any
	if e.Level != nil {
		level = *e.Level
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO x10_journal (id, source, device, house, command, level, input, actions, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Source, e.Device, e.House, e.Command, level, e.Input,
		len(e.Actions), string(detail),
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Device != "" {
		conditions = append(conditions, "device = ?")
		args = append(args, normalizeDevice(filter.Device))
	}
	if filter.House != "" {
		conditions = append(conditions, "house = ?")
		args = append(args, strings.ToUpper(filter.House))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM x10_journal " + where //nolint:gosec // WHERE built from fixed, parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}

	query := "SELECT id, source, device, house, command, level, input, detail, created_at FROM x10_journal " + //nolint:gosec // as above
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Prune deletes entries older than olderThan and returns how many were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM x10_journal WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var level sql.NullInt64
	var detail, createdAt string

	if err := rows.Scan(&e.ID, &e.Source, &e.Device, &e.House, &e.Command,
		&level, &e.Input, &detail, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning journal entry: %w", err)
	}

	if level.Valid {
		l := int(level.Int64)
		e.Level = &l
	}
	if err := json.Unmarshal([]byte(detail), &e.Actions); err != nil || e.Actions == nil {
		e.Actions = []ActionRecord{}
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing journal timestamp %q: %w", createdAt, err)
	}
	e.CreatedAt = t

	return e, nil
}

// normalizeDevice maps a filter value to the stored device form.
func normalizeDevice(s string) string {
	if id, err := x10.ParseDeviceID(s); err == nil {
		return id.String()
	}
	return s
}

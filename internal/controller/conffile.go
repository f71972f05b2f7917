package controller

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ttyDirective is the controller config keyword naming the serial device.
const ttyDirective = "TTY"

// PatchTTY sets the TTY directive in the controller configuration file at
// path. Existing TTY lines are rewritten; if none exists the directive is
// appended. All other lines are preserved. The file is only written when
// its content changes, and the returned bool reports whether it did.
func PatchTTY(path, tty string) (bool, error) {
	tty = strings.TrimSpace(tty)
	if tty == "" {
		return false, ErrNoTTY
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from operator configuration
	if err != nil {
		return false, fmt.Errorf("reading controller config: %w", err)
	}

	patched := patchTTYContent(string(data), tty)
	if patched == string(data) {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat controller config: %w", err)
	}
	if err := writeFileAtomic(path, []byte(patched), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

// patchTTYContent returns content with every TTY directive set to tty.
func patchTTYContent(content, tty string) string {
	directive := ttyDirective + " " + tty

	lines := strings.Split(content, "\n")
	found := false
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.EqualFold(fields[0], ttyDirective) {
			continue
		}
		found = true
		lines[i] = directive
	}

	if found {
		return strings.Join(lines, "\n")
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + directive + "\n"
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing controller config: %w", err)
	}
	return nil
}

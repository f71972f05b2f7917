package controller

import (
	"fmt"

	"github.com/google/shlex"
)

// SplitCommand splits a configured command line into binary and
// arguments using shell quoting rules.
func SplitCommand(line string) (string, []string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return "", nil, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if len(words) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return words[0], words[1:], nil
}

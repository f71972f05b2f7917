package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultCommandTimeout applies when the configured timeout is zero.
const defaultCommandTimeout = 10 * time.Second

// maxOutputLog truncates controller output before it is logged.
const maxOutputLog = 512

// Logger defines the logging interface for the controller package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Executor runs one controller CLI invocation per command.
//
// Thread Safety: Execute may be called concurrently.
type Executor struct {
	binary  string
	timeout time.Duration
	logger  Logger
}

// NewExecutor creates an executor for the given controller binary.
func NewExecutor(binary string, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Executor{
		binary:  binary,
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// Execute runs "<binary> <args...>" and waits for it to finish.
// The arguments are passed through as-is, including an empty list.
func (e *Executor) Execute(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.binary, args...) //nolint:gosec // Binary comes from operator configuration
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := truncate(strings.TrimSpace(out.String()), maxOutputLog)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.logger.Warn("controller command timed out",
				"args", args,
				"timeout", e.timeout,
			)
			return fmt.Errorf("%w: %s %s", ErrCommandTimeout, e.binary, strings.Join(args, " "))
		}
		e.logger.Warn("controller command failed",
			"args", args,
			"error", err,
			"output", output,
		)
		return fmt.Errorf("%w: %s %s: %w", ErrCommandFailed, e.binary, strings.Join(args, " "), err)
	}

	e.logger.Debug("controller command completed",
		"args", args,
		"duration_ms", time.Since(start).Milliseconds(),
		"output", output,
	)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of a managed process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
)

// maxLineLength bounds a single line read from the subprocess.
const maxLineLength = 64 * 1024

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// RestartOnFailure enables automatic restart when the process exits unexpectedly.
	RestartOnFailure bool

	// RestartDelay is the delay before the first restart. Later attempts
	// double it up to MaxRestartDelay.
	RestartDelay time.Duration

	// MaxRestartDelay caps the restart backoff.
	MaxRestartDelay time.Duration

	// StableThreshold is how long a process must run before its
	// consecutive failure count resets.
	StableThreshold time.Duration

	// MaxRestartAttempts limits consecutive restart attempts. 0 means unlimited.
	MaxRestartAttempts int

	// GracefulTimeout is how long to wait for graceful shutdown before SIGKILL.
	GracefulTimeout time.Duration

	// OnLine receives every line the process writes to stdout, without
	// the trailing newline. Called from a single reader goroutine.
	OnLine func(line string)

	// OnStart is called when the process starts successfully.
	OnStart func()

	// OnStop is called when the process stops (either normally or due to failure).
	OnStop func(err error)

	// OnRestart is called before each restart attempt.
	OnRestart func(attempt int)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name, binary string, args []string) Config {
	return Config{
		Name:               name,
		Binary:             binary,
		Args:               args,
		RestartOnFailure:   true,
		RestartDelay:       5 * time.Second,
		MaxRestartDelay:    5 * time.Minute,
		StableThreshold:    2 * time.Minute,
		MaxRestartAttempts: 10,
		GracefulTimeout:    10 * time.Second,
	}
}

// Logger defines the logging interface for the process manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager manages the lifecycle of a subprocess.
type Manager struct {
	config Config
	logger Logger

	mu           sync.RWMutex
	cmd          *exec.Cmd
	status       Status
	restartCount int
	lastError    error
	startTime    time.Time
	active       bool
	cancel       context.CancelFunc

	// done is closed when the monitor goroutine exits.
	done chan struct{}

	// readers tracks the output goroutines of every started process.
	readers sync.WaitGroup
}

// NewManager creates a new process manager with the given configuration.
func NewManager(cfg Config) *Manager {
	// Apply defaults for zero values
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = 5 * time.Second
	}
	if cfg.MaxRestartDelay == 0 {
		cfg.MaxRestartDelay = 5 * time.Minute
	}
	if cfg.MaxRestartDelay < cfg.RestartDelay {
		cfg.MaxRestartDelay = cfg.RestartDelay
	}
	if cfg.StableThreshold == 0 {
		cfg.StableThreshold = 2 * time.Minute
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}

	return &Manager{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Start launches the subprocess and begins monitoring it.
// Returns an error if the process fails to start.
// The process will be automatically restarted on failure if configured.
// Cancelling ctx stops the process as Stop does.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, m.config.Name)
	}
	m.status = StatusStarting
	m.restartCount = 0
	m.lastError = nil
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)

	exitCh, err := m.startProcess()
	if err != nil {
		cancel()
		m.mu.Lock()
		m.status = StatusFailed
		m.lastError = err
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.active = true
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go m.monitor(runCtx, exitCh, done)

	return nil
}

// startProcess starts the subprocess and returns a channel that receives
// its exit status.
func (m *Manager) startProcess() (<-chan error, error) {
	m.logger.Info("starting process",
		"name", m.config.Name,
		"binary", m.config.Binary,
		"args", m.config.Args,
	)

	cmd := exec.Command(m.config.Binary, m.config.Args...) //nolint:gosec // Binary comes from operator configuration

	// Create a new process group so we can signal all children on shutdown
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}
	if m.config.WorkDir != "" {
		cmd.Dir = m.config.WorkDir
	}

	// Plain os.Pipe rather than StdoutPipe: Wait must not close the read
	// side while lines are still buffered.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	// The child holds its own copies of the write ends.
	stdoutW.Close()
	stderrW.Close()

	m.readers.Add(2)
	go m.readLines(stdoutR, m.handleStdout)
	go m.readLines(stderrR, m.handleStderr)

	exitCh := make(chan error, 1)
	go func() {
		exitCh <- cmd.Wait()
	}()

	m.mu.Lock()
	m.cmd = cmd
	m.status = StatusRunning
	m.startTime = time.Now()
	m.mu.Unlock()

	m.logger.Info("process started",
		"name", m.config.Name,
		"pid", cmd.Process.Pid,
	)

	if m.config.OnStart != nil {
		m.config.OnStart()
	}

	return exitCh, nil
}

// readLines feeds each line of r to handle until EOF, then closes r.
func (m *Manager) readLines(r io.ReadCloser, handle func(string)) {
	defer m.readers.Done()
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineLength)
	for scanner.Scan() {
		handle(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		m.logger.Warn("output stream error", "name", m.config.Name, "error", err)
	}
}

func (m *Manager) handleStdout(line string) {
	if m.config.OnLine != nil {
		m.config.OnLine(line)
		return
	}
	m.logger.Debug("process output", "name", m.config.Name, "stream", "stdout", "line", line)
}

func (m *Manager) handleStderr(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	m.logger.Warn("process output", "name", m.config.Name, "stream", "stderr", "line", line)
}

// monitor watches the process and handles restarts until ctx is
// cancelled or restarts are exhausted.
func (m *Manager) monitor(ctx context.Context, exitCh <-chan error, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.active = false
		m.mu.Unlock()
		close(done)
	}()

	failures := 0

	for {
		var err error
		if exitCh != nil {
			select {
			case err = <-exitCh:
			case <-ctx.Done():
				m.terminate(exitCh)
				m.finishStopped()
				return
			}

			if ctx.Err() != nil {
				m.finishStopped()
				return
			}

			if err == nil {
				err = errors.New("exited with status 0")
			}
			m.logger.Warn("process exited unexpectedly",
				"name", m.config.Name,
				"error", err,
			)

			m.mu.Lock()
			ran := time.Since(m.startTime)
			m.lastError = err
			m.status = StatusFailed
			m.mu.Unlock()

			if m.config.OnStop != nil {
				m.config.OnStop(err)
			}

			if ran >= m.config.StableThreshold {
				failures = 0
			}
		}

		if !m.config.RestartOnFailure {
			m.logger.Info("restart disabled, not restarting", "name", m.config.Name)
			return
		}

		failures++
		if m.config.MaxRestartAttempts > 0 && failures > m.config.MaxRestartAttempts {
			m.logger.Error("max restart attempts reached",
				"name", m.config.Name,
				"attempts", failures-1,
			)
			return
		}

		delay := m.calculateBackoffDelay(failures)
		m.logger.Info("restarting process",
			"name", m.config.Name,
			"attempt", failures,
			"delay", delay,
		)

		if m.config.OnRestart != nil {
			m.config.OnRestart(failures)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("context cancelled, not restarting", "name", m.config.Name)
			m.finishStopped()
			return
		case <-timer.C:
		}

		m.mu.Lock()
		m.restartCount++
		m.mu.Unlock()

		exitCh, err = m.startProcess()
		if err != nil {
			m.logger.Error("failed to restart process",
				"name", m.config.Name,
				"error", err,
			)
			m.mu.Lock()
			m.lastError = err
			m.mu.Unlock()
			exitCh = nil
		}
	}
}

// calculateBackoffDelay returns the delay before the given restart
// attempt (1-based): RestartDelay doubled per attempt, capped at
// MaxRestartDelay.
func (m *Manager) calculateBackoffDelay(attempt int) time.Duration {
	delay := m.config.RestartDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.config.MaxRestartDelay {
			return m.config.MaxRestartDelay
		}
	}
	return delay
}

// terminate sends SIGTERM to the process group and escalates to SIGKILL
// after GracefulTimeout.
func (m *Manager) terminate(exitCh <-chan error) {
	m.mu.RLock()
	cmd := m.cmd
	m.mu.RUnlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	pid := cmd.Process.Pid
	m.logger.Info("stopping process", "name", m.config.Name, "pid", pid)

	// Negative PID signals the whole process group created via Setpgid.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		m.logger.Warn("failed to send SIGTERM to process group", "name", m.config.Name, "error", err)
	}

	timer := time.NewTimer(m.config.GracefulTimeout)
	defer timer.Stop()

	select {
	case <-exitCh:
		m.logger.Info("process stopped gracefully", "name", m.config.Name)
		return
	case <-timer.C:
		m.logger.Warn("graceful shutdown timeout, sending SIGKILL",
			"name", m.config.Name,
			"timeout", m.config.GracefulTimeout,
		)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		m.logger.Error("failed to kill process group", "name", m.config.Name, "error", err)
	}
	<-exitCh
	m.logger.Info("process killed", "name", m.config.Name)
}

func (m *Manager) finishStopped() {
	m.mu.Lock()
	m.status = StatusStopped
	m.mu.Unlock()
	m.logger.Info("process stopped as requested", "name", m.config.Name)
	if m.config.OnStop != nil {
		m.config.OnStop(nil)
	}
}

// Stop stops the subprocess and any pending restart, then waits for its
// output to drain. Safe to call when nothing is running.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil || done == nil {
		return nil
	}

	cancel()
	<-done
	m.readers.Wait()
	return nil
}

// Done returns a channel closed when monitoring ends, either after Stop
// or once restarts are exhausted. Nil before Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}

// Status returns the current status of the managed process.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsRunning returns true if the process is currently running.
func (m *Manager) IsRunning() bool {
	return m.Status() == StatusRunning
}

// LastError returns the last error that caused the process to exit.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// RestartCount returns the number of times the process has been restarted.
func (m *Manager) RestartCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.restartCount
}

// Uptime returns how long the process has been running.
// Returns 0 if the process is not running.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != StatusRunning {
		return 0
	}
	return time.Since(m.startTime)
}

// PID returns the process ID, or 0 if not running.
func (m *Manager) PID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status == StatusRunning && m.cmd != nil && m.cmd.Process != nil {
		return m.cmd.Process.Pid
	}
	return 0
}

// Stats returns statistics about the managed process.
type Stats struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	PID          int           `json:"pid,omitempty"`
	Uptime       time.Duration `json:"uptime,omitempty"`
	RestartCount int           `json:"restart_count"`
	LastError    string        `json:"last_error,omitempty"`
}

// Stats returns current statistics for the process.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Name:         m.config.Name,
		Status:       m.status,
		RestartCount: m.restartCount,
	}

	if m.status == StatusRunning {
		if m.cmd != nil && m.cmd.Process != nil {
			stats.PID = m.cmd.Process.Pid
		}
		stats.Uptime = time.Since(m.startTime)
	}

	if m.lastError != nil {
		stats.LastError = m.lastError.Error()
	}

	return stats
}

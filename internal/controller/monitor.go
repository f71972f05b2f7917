package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/x10-bridge/internal/process"
)

// monitorName identifies the monitor process in logs and stats.
const monitorName = "x10-monitor"

// MonitorConfig configures the supervised monitor process.
type MonitorConfig struct {
	// Command is the full monitor command line, e.g. "heyu monitor".
	Command string

	// RestartOnFailure restarts the monitor when it exits.
	RestartOnFailure bool

	// RestartDelay is the initial restart backoff.
	RestartDelay time.Duration

	// MaxRestartAttempts limits consecutive restarts. 0 means unlimited.
	MaxRestartAttempts int

	// OnLine receives each monitor output line.
	OnLine func(line string)
}

// Monitor runs the controller's monitor command and streams its output.
type Monitor struct {
	process *process.Manager
	logger  Logger
	binary  string
	args    []string
}

// NewMonitor validates cfg and prepares the monitor process.
// The process is not started until Start is called.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	binary, args, err := SplitCommand(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid monitor command: %w", err)
	}
	if cfg.OnLine == nil {
		return nil, fmt.Errorf("monitor line handler is required")
	}

	m := &Monitor{
		logger: noopLogger{},
		binary: binary,
		args:   args,
	}

	procCfg := process.DefaultConfig(monitorName, binary, args)
	procCfg.RestartOnFailure = cfg.RestartOnFailure
	procCfg.MaxRestartAttempts = cfg.MaxRestartAttempts
	if cfg.RestartDelay > 0 {
		procCfg.RestartDelay = cfg.RestartDelay
	}
	procCfg.OnLine = cfg.OnLine
	procCfg.OnStop = func(err error) {
		if err != nil {
			m.logger.Warn("monitor stopped", "error", err)
		}
	}
	procCfg.OnRestart = func(attempt int) {
		m.logger.Info("monitor restarting", "attempt", attempt)
	}

	m.process = process.NewManager(procCfg)
	return m, nil
}

// SetLogger sets the logger for the monitor and its process manager.
func (m *Monitor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
	m.process.SetLogger(logger)
}

// Start launches the monitor process.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("starting monitor", "binary", m.binary, "args", m.args)
	if err := m.process.Start(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	return nil
}

// Stop terminates the monitor process.
func (m *Monitor) Stop() error {
	return m.process.Stop()
}

// Done is closed when the monitor gives up or is stopped.
func (m *Monitor) Done() <-chan struct{} {
	return m.process.Done()
}

// IsRunning reports whether the monitor process is alive.
func (m *Monitor) IsRunning() bool {
	return m.process.IsRunning()
}

// Stats returns process statistics for the monitor.
func (m *Monitor) Stats() process.Stats {
	return m.process.Stats()
}

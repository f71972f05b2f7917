// Package process supervises a long-running child process.
//
// The X10 bridge uses it to keep the controller's monitor command alive:
// every stdout line is handed to a callback, stderr is logged, and the
// process is restarted with exponential backoff when it exits.
//
// Features:
//   - Start/stop with SIGTERM to the process group, then SIGKILL
//   - Restart backoff from RestartDelay up to MaxRestartDelay
//   - Failure count reset once a run outlives StableThreshold
//   - Line streaming from stdout via Config.OnLine
//
// Example usage:
//
//	mgr := process.NewManager(process.Config{
//	    Name:             "heyu-monitor",
//	    Binary:           "/usr/local/bin/heyu",
//	    Args:             []string{"monitor"},
//	    RestartOnFailure: true,
//	    OnLine:           bridge.HandleMonitorLine,
//	})
//
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
package process

package process

import "errors"

// ErrAlreadyRunning is returned by Start while a previous run is still
// being monitored.
var ErrAlreadyRunning = errors.New("process already running")

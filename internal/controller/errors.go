package controller

import "errors"

// Domain errors for the controller package.
var (
	// ErrEmptyCommand is returned when a configured command line has no words.
	ErrEmptyCommand = errors.New("empty command line")

	// ErrCommandFailed is returned when the controller CLI exits non-zero.
	ErrCommandFailed = errors.New("controller command failed")

	// ErrCommandTimeout is returned when the controller CLI outlives its timeout.
	ErrCommandTimeout = errors.New("controller command timed out")

	// ErrNoTTY is returned when a config file patch is requested without a device.
	ErrNoTTY = errors.New("tty device is required")
)

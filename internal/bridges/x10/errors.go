package x10

import "errors"

// Domain errors for the X10 bridge package.
var (
	// ErrInvalidHouse is returned when a house code is not a single letter A-P.
	ErrInvalidHouse = errors.New("x10: invalid house code")

	// ErrInvalidUnit is returned when a unit number is outside 1-16.
	ErrInvalidUnit = errors.New("x10: invalid unit number")

	// ErrInvalidDevice is returned when a device identifier cannot be parsed.
	ErrInvalidDevice = errors.New("x10: invalid device identifier")
)

// Package controller drives the external X10 controller CLI.
//
// The bridge never speaks the power-line protocol itself. Instead it runs
// the controller binary (heyu by default) in two ways:
//
//   - Monitor keeps "<binary> monitor" running under process.Manager and
//     hands each output line to a callback.
//   - Executor runs one "<binary> <args...>" invocation per command with a
//     timeout.
//
// PatchTTY rewrites the TTY directive of the controller's configuration
// file so the serial device can be set from the bridge configuration.
package controller

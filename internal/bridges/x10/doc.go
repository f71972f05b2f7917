// Package x10 implements the X10 <-> MQTT bridge core.
//
// It translates between the line-oriented monitor output of an external X10
// controller CLI and MQTT topics, in both directions:
//
//	┌──────────────┐  <prefix>/+/set   ┌──────────────┐  controller CLI
//	│  MQTT broker │ ────────────────► │    Bridge    │ ───────────────► X10
//	│              │ ◄──────────────── │  (this pkg)  │ ◄─────────────── power line
//	└──────────────┘  <prefix>/<dev>   └──────────────┘  monitor lines
//
// # Components
//
//   - DeviceID / House: canonical X10 addressing (A-P, 1-16)
//   - DeviceRegistry: every device ever commanded or observed
//   - AddressQueue: pending unit addresses awaiting a house function line
//   - Parser: monitor line -> Events
//   - Translator: MQTT on/off payload -> controller token
//   - Router: Events and SetRequests -> Actions
//   - Bridge: glue that executes Actions against MQTT and the controller
//
// The Parser, Translator and Router perform no I/O and never fail; lines and
// payloads they do not recognise produce no Events or Actions.
//
// # Thread Safety
//
// Parser and Router are not safe for concurrent use on their own. Bridge
// serialises monitor lines and MQTT messages so they can be driven from the
// paho callback goroutines and the monitor reader goroutine at once.
// DeviceRegistry is safe for concurrent use.
package x10

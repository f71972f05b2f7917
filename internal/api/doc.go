// Package api provides the read-only HTTP status API of the X10 bridge.
//
// Routes (all GET):
//
//	/api/v1/health          MQTT connection and monitor process status
//	/api/v1/metrics         bridge counters and Go runtime statistics
//	/api/v1/devices         registered devices, optional ?house=C
//	/api/v1/devices/{id}    one registered device
//	/api/v1/journal         recent journal entries (when the journal is enabled)
//
// Commands are not accepted over HTTP; they arrive on MQTT only.
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

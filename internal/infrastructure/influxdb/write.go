package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementDeviceState = "x10_device_state"
	measurementHouseEvent  = "x10_house_event"
)

// WriteDeviceState records a device's published status.
//
// Tags: device, house. Field: on (bool).
func (c *Client) WriteDeviceState(device string, on bool) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(deviceStatePoint(device, on, c.now()))
}

// WriteHouseEvent records a house-wide command such as "alloff".
//
// Tags: house, command. Field: count (always 1).
func (c *Client) WriteHouseEvent(house, command string) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(houseEventPoint(house, command, c.now()))
}

func deviceStatePoint(device string, on bool, ts time.Time) *write.Point {
	tags := map[string]string{"device": device}
	if device != "" {
		tags["house"] = device[:1]
	}
	return write.NewPoint(
		measurementDeviceState,
		tags,
		map[string]any{"on": on},
		ts,
	)
}

func houseEventPoint(house, command string, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementHouseEvent,
		map[string]string{
			"house":   house,
			"command": command,
		},
		map[string]any{"count": 1},
		ts,
	)
}

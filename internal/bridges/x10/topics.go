package x10

import "strings"

// RawDevice is the topic segment that passes a payload straight to the
// controller CLI.
const RawDevice = "raw"

// Status payloads published for devices. They are JSON strings.
const (
	StatusOn  = `"on"`
	StatusOff = `"off"`
)

// Topics builds the bridge's MQTT topics under a prefix.
//
// Topic structure:
//
//	<prefix>/<device>/set          inbound commands (device or "raw")
//	<prefix>/<device>              device status, "on" or "off"
//	<prefix>/house/<H>/event       house-wide command token
//	<prefix>/bridge/status         bridge availability
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder for prefix. Leading and trailing
// slashes are trimmed.
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

// Prefix returns the normalised prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// SetSubscription returns the wildcard subscription for inbound commands.
func (t Topics) SetSubscription() string {
	return t.prefix + "/+/set"
}

// Device returns the status topic for a device.
func (t Topics) Device(id DeviceID) string {
	return t.prefix + "/" + id.String()
}

// HouseEvent returns the house-wide event topic for a house.
func (t Topics) HouseEvent(h House) string {
	return t.prefix + "/house/" + h.String() + "/event"
}

// BridgeStatus returns the availability topic.
func (t Topics) BridgeStatus() string {
	return t.prefix + "/bridge/status"
}

// DeviceFromTopic extracts the device segment of a "<prefix>/<device>/set"
// topic. It returns false for any topic that does not have that shape.
func (t Topics) DeviceFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.prefix+"/")
	if !ok {
		return "", false
	}
	device, ok := strings.CutSuffix(rest, "/set")
	if !ok || device == "" || strings.Contains(device, "/") {
		return "", false
	}
	return device, true
}

// DeviceFromTopic is the prefix-string form of Topics.DeviceFromTopic.
func DeviceFromTopic(prefix, topic string) (string, bool) {
	return NewTopics(prefix).DeviceFromTopic(topic)
}

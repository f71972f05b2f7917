package x10

// NoLevel marks a UnitCommand that carried no level.
const NoLevel = -1

// Event is a decoded observation from the controller's monitor output.
//
// Implementations: MonitorStarted, UnitAddressed, HouseWideCommand,
// UnitCommand.
type Event interface {
	isEvent()
}

// MonitorStarted is emitted when the monitor reports it has started.
type MonitorStarted struct{}

// UnitAddressed is emitted when a unit address frame is queued.
// The router takes no action on it.
type UnitAddressed struct {
	House House
	Unit  int
}

// HouseWideCommand is a function line addressed to a whole house.
// Command is lowercase, e.g. "alloff".
type HouseWideCommand struct {
	House   House
	Command string
}

// UnitCommand is a function applied to a single device.
// Command is lowercase. Level is NoLevel unless the monitor reported one.
type UnitCommand struct {
	Device  DeviceID
	Command string
	Level   int
}

func (MonitorStarted) isEvent()   {}
func (UnitAddressed) isEvent()    {}
func (HouseWideCommand) isEvent() {}
func (UnitCommand) isEvent()      {}

// SetRequest is an inbound MQTT command for a device, or for the raw
// passthrough when Device is RawDevice.
type SetRequest struct {
	Device  string
	Payload string
}

// Action is a side effect the Bridge performs on behalf of the Router.
//
// Implementations: RunControllerCommand, PublishMQTT.
type Action interface {
	isAction()
}

// RunControllerCommand invokes the controller CLI with Tokens as arguments.
type RunControllerCommand struct {
	Tokens []string
}

// PublishMQTT publishes Payload to Topic.
//
// Device is set for per-device status messages and zero otherwise.
type PublishMQTT struct {
	Topic    string
	Payload  string
	Retained bool
	Device   DeviceID
}

func (RunControllerCommand) isAction() {}
func (PublishMQTT) isAction()          {}

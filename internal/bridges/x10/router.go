package x10

import "strings"

// Router turns SetRequests and Events into Actions.
//
// It is the only component that mutates the DeviceRegistry. Router performs
// no I/O; the Bridge executes the Actions it returns.
type Router struct {
	topics       Topics
	registry     *DeviceRegistry
	translator   Translator
	retainStatus bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRetainedStatus marks device status publishes as retained.
func WithRetainedStatus(retain bool) RouterOption {
	return func(r *Router) {
		r.retainStatus = retain
	}
}

// NewRouter creates a Router publishing under prefix.
// A nil registry is replaced with an empty one.
func NewRouter(prefix string, registry *DeviceRegistry, translator Translator, opts ...RouterOption) *Router {
	if registry == nil {
		registry = NewDeviceRegistry()
	}
	r := &Router{
		topics:     NewTopics(prefix),
		registry:   registry,
		translator: translator,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the router writes to.
func (r *Router) Registry() *DeviceRegistry {
	return r.registry
}

// Topics returns the router's topic builder.
func (r *Router) Topics() Topics {
	return r.topics
}

// HandleSetRequest decides what to do with an inbound MQTT command.
//
// Raw requests are split on whitespace and always produce one
// RunControllerCommand, even with no tokens. Device requests produce a
// command only for a valid device and an "on"/"off" payload; anything else
// returns nil and leaves the registry untouched.
func (r *Router) HandleSetRequest(req SetRequest) []Action {
	if req.Device == RawDevice {
		return []Action{RunControllerCommand{Tokens: strings.Fields(req.Payload)}}
	}

	id, err := ParseDeviceID(req.Device)
	if err != nil {
		return nil
	}
	token, ok := r.translator.Translate(req.Payload)
	if !ok {
		return nil
	}

	r.registry.Add(id)
	return []Action{RunControllerCommand{Tokens: []string{token, id.String()}}}
}

// HandleEvent decides what to publish for a decoded monitor event.
func (r *Router) HandleEvent(ev Event) []Action {
	switch e := ev.(type) {
	case HouseWideCommand:
		return r.houseWide(e)
	case UnitCommand:
		return r.unitCommand(e)
	default:
		// MonitorStarted and UnitAddressed only affect logging and the queue.
		return nil
	}
}

func (r *Router) houseWide(e HouseWideCommand) []Action {
	on, ok := houseWideCommands[e.Command]
	if !ok {
		return nil
	}

	devices := r.registry.InHouse(e.House)
	actions := make([]Action, 0, len(devices)+1)
	actions = append(actions, PublishMQTT{
		Topic:   r.topics.HouseEvent(e.House),
		Payload: e.Command,
	})
	for _, id := range devices {
		actions = append(actions, r.status(id, on))
	}
	return actions
}

func (r *Router) unitCommand(e UnitCommand) []Action {
	if e.Device.IsZero() {
		return nil
	}
	r.registry.Add(e.Device)

	switch e.Command {
	case CommandOn, CommandXPreset:
		// A preset level is reported as plain "on".
		return []Action{r.status(e.Device, true)}
	case CommandOff:
		return []Action{r.status(e.Device, false)}
	default:
		return nil
	}
}

func (r *Router) status(id DeviceID, on bool) PublishMQTT {
	payload := StatusOff
	if on {
		payload = StatusOn
	}
	return PublishMQTT{
		Topic:    r.topics.Device(id),
		Payload:  payload,
		Retained: r.retainStatus,
		Device:   id,
	}
}

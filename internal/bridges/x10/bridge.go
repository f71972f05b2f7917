package x10

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// commandQueueSize bounds controller commands waiting for the worker.
const commandQueueSize = 64

// Activity sources.
const (
	SourceMQTT    = "mqtt"
	SourceMonitor = "monitor"
)

// MQTTClient is the subset of the MQTT client the bridge needs.
// This allows mocking in tests.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Executor runs the controller CLI with the given arguments.
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// ActivityRecorder receives one record per routed request or event.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, a Activity) error
}

// StateRecorder receives device status changes and house-wide events.
type StateRecorder interface {
	WriteDeviceState(device string, on bool)
	WriteHouseEvent(house, command string)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Activity describes one routing decision.
type Activity struct {
	// Source is SourceMQTT or SourceMonitor.
	Source string

	// Device is the device id, RawDevice, or empty for house-wide events.
	Device string

	// House is set for monitor events.
	House string

	// Command is the normalised command or payload.
	Command string

	// Level is the reported level, or NoLevel.
	Level int

	// Input is the monitor line or MQTT payload that caused the activity.
	Input string

	// Actions are the resulting actions; empty when the input was ignored.
	Actions []Action
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Prefix is the MQTT topic prefix, e.g. "home/x10".
	Prefix string

	// AlternateTransmitter selects fon/foff instead of on/off.
	AlternateTransmitter bool

	// RetainStatus marks device status publishes as retained.
	RetainStatus bool

	// QoS is used for the subscription and every publish.
	QoS byte

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Executor runs controller commands.
	Executor Executor

	// Registry is shared with the status API. If nil, a new one is created.
	Registry *DeviceRegistry

	// Recorder is optional; if nil, activity is not journaled.
	Recorder ActivityRecorder

	// States is optional; if nil, state history is not written.
	States StateRecorder

	// Logger is optional structured logger.
	Logger Logger
}

// Bridge connects the controller monitor, the controller CLI and MQTT.
//
// Monitor lines and MQTT messages may arrive concurrently. Bridge serialises
// them so the Parser and Router see one input at a time, then performs the
// resulting Actions outside the lock. Controller commands are queued to a
// single worker so they run in arrival order; callers never wait for them
// and they are not retried.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	qos      byte
	mqtt     MQTTClient
	executor Executor
	recorder ActivityRecorder
	states   StateRecorder
	logger   Logger

	mu     sync.Mutex
	parser *Parser
	router *Router

	metrics bridgeCounters

	// cmdMu guards commands against a send after close.
	cmdMu    sync.Mutex
	commands chan []string
	started  bool
	stopped  bool

	// Shutdown coordination
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc
}

type bridgeCounters struct {
	linesReceived   atomic.Uint64
	eventsDecoded   atomic.Uint64
	setRequests     atomic.Uint64
	commandsRun     atomic.Uint64
	commandFailures atomic.Uint64
	published       atomic.Uint64
	publishFailures atomic.Uint64
}

// NewBridge creates a new bridge instance.
// Call Start() to subscribe to inbound commands.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if NewTopics(opts.Prefix).Prefix() == "" {
		return nil, fmt.Errorf("topic prefix is required")
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		qos:      opts.QoS,
		mqtt:     opts.MQTTClient,
		executor: opts.Executor,
		recorder: opts.Recorder,
		states:   opts.States,
		logger:   opts.Logger,
		parser:   NewParser(),
		router: NewRouter(opts.Prefix, opts.Registry,
			Translator{AlternateTransmitter: opts.AlternateTransmitter},
			WithRetainedStatus(opts.RetainStatus)),
		commands:  make(chan []string, commandQueueSize),
		ctx:       ctx,
		ctxCancel: ctxCancel,
	}, nil
}

// Start launches the command worker and subscribes to "<prefix>/+/set".
func (b *Bridge) Start(ctx context.Context) error {
	b.cmdMu.Lock()
	if b.stopped {
		b.cmdMu.Unlock()
		return fmt.Errorf("bridge is stopped")
	}
	if !b.started {
		b.started = true
		b.wg.Add(1)
		go b.commandWorker()
	}
	b.cmdMu.Unlock()

	topic := b.router.Topics().SetSubscription()
	if err := b.mqtt.Subscribe(topic, b.qos, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)
	return nil
}

// Stop unsubscribes from commands, cancels the running controller command,
// drops queued ones and waits for the worker to return.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		topic := b.router.Topics().SetSubscription()
		if err := b.mqtt.Unsubscribe(topic); err != nil {
			b.logWarn("failed to unsubscribe from commands", "topic", topic, "error", err)
		}

		b.cmdMu.Lock()
		b.stopped = true
		close(b.commands)
		b.cmdMu.Unlock()

		b.ctxCancel()
		b.wg.Wait()
		b.logInfo("bridge stopped")
	})
}

// Registry returns the device registry.
func (b *Bridge) Registry() *DeviceRegistry {
	return b.router.Registry()
}

// HandleMonitorLine processes one line of monitor output.
func (b *Bridge) HandleMonitorLine(line string) {
	b.metrics.linesReceived.Add(1)

	type routed struct {
		event   Event
		actions []Action
	}

	b.mu.Lock()
	events := b.parser.Parse(line)
	results := make([]routed, 0, len(events))
	for _, ev := range events {
		results = append(results, routed{event: ev, actions: b.router.HandleEvent(ev)})
	}
	b.mu.Unlock()

	for _, r := range results {
		b.metrics.eventsDecoded.Add(1)
		switch e := r.event.(type) {
		case MonitorStarted:
			b.logInfo("controller monitor started")
			continue
		case UnitAddressed:
			b.logDebug("unit addressed", "house", e.House.String(), "unit", e.Unit)
			continue
		}

		b.perform(r.actions)
		b.record(eventActivity(r.event, line, r.actions))
	}
}

// handleMQTTMessage processes an inbound "<prefix>/<device>/set" message.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	device, ok := b.router.Topics().DeviceFromTopic(topic)
	if !ok {
		b.logDebug("ignoring message on unexpected topic", "topic", topic)
		return
	}
	b.metrics.setRequests.Add(1)

	req := SetRequest{Device: device, Payload: string(payload)}

	b.mu.Lock()
	actions := b.router.HandleSetRequest(req)
	b.mu.Unlock()

	if len(actions) == 0 {
		b.logDebug("ignoring set request", "device", device, "payload", req.Payload)
	}

	label := device
	if id, err := ParseDeviceID(device); err == nil {
		label = id.String()
	}

	b.perform(actions)
	b.record(Activity{
		Source:  SourceMQTT,
		Device:  label,
		Command: normalizeCommand(req.Payload),
		Level:   NoLevel,
		Input:   req.Payload,
		Actions: actions,
	})
}

// perform executes actions in order.
func (b *Bridge) perform(actions []Action) {
	for _, a := range actions {
		switch act := a.(type) {
		case RunControllerCommand:
			b.runCommand(act.Tokens)
		case PublishMQTT:
			b.publish(act)
		}
	}
}

// runCommand queues tokens for the command worker without waiting.
func (b *Bridge) runCommand(tokens []string) {
	b.cmdMu.Lock()
	defer b.cmdMu.Unlock()

	if b.stopped {
		b.logWarn("bridge stopped, dropping controller command", "args", tokens)
		return
	}

	select {
	case b.commands <- tokens:
	default:
		b.metrics.commandFailures.Add(1)
		b.logError("controller command queue full, dropping command", "args", tokens, "queued", len(b.commands))
	}
}

// commandWorker runs queued controller commands one at a time.
func (b *Bridge) commandWorker() {
	defer b.wg.Done()

	for tokens := range b.commands {
		if b.ctx.Err() != nil {
			b.logDebug("bridge stopping, skipping controller command", "args", tokens)
			continue
		}

		b.metrics.commandsRun.Add(1)
		if err := b.executor.Execute(b.ctx, tokens); err != nil {
			b.metrics.commandFailures.Add(1)
			b.logError("controller command failed", "args", tokens, "error", err)
			continue
		}
		b.logDebug("controller command sent", "args", tokens)
	}
}

func (b *Bridge) publish(p PublishMQTT) {
	if err := b.mqtt.Publish(p.Topic, []byte(p.Payload), b.qos, p.Retained); err != nil {
		b.metrics.publishFailures.Add(1)
		b.logError("publish failed", "topic", p.Topic, "error", err)
		return
	}
	b.metrics.published.Add(1)
	b.logDebug("published", "topic", p.Topic, "payload", p.Payload)

	if b.states == nil {
		return
	}
	if !p.Device.IsZero() {
		b.states.WriteDeviceState(p.Device.String(), p.Payload == StatusOn)
	}
}

func (b *Bridge) record(a Activity) {
	if b.states != nil && a.Source == SourceMonitor && a.Device == "" {
		b.states.WriteHouseEvent(a.House, a.Command)
	}
	if b.recorder == nil {
		return
	}
	if err := b.recorder.RecordActivity(b.ctx, a); err != nil {
		b.logWarn("failed to record activity", "error", err)
	}
}

func eventActivity(ev Event, line string, actions []Action) Activity {
	a := Activity{Source: SourceMonitor, Level: NoLevel, Input: line, Actions: actions}
	switch e := ev.(type) {
	case HouseWideCommand:
		a.House = e.House.String()
		a.Command = e.Command
	case UnitCommand:
		a.Device = e.Device.String()
		a.House = e.Device.House().String()
		a.Command = e.Command
		a.Level = e.Level
	}
	return a
}

// BridgeMetrics contains counters for the status API.
type BridgeMetrics struct {
	MQTTConnected   bool
	Devices         int
	LinesReceived   uint64
	EventsDecoded   uint64
	SetRequests     uint64
	CommandsRun     uint64
	CommandFailures uint64
	Published       uint64
	PublishFailures uint64
}

// GetMetrics returns a snapshot of the bridge counters.
func (b *Bridge) GetMetrics() BridgeMetrics {
	return BridgeMetrics{
		MQTTConnected:   b.mqtt.IsConnected(),
		Devices:         b.Registry().Len(),
		LinesReceived:   b.metrics.linesReceived.Load(),
		EventsDecoded:   b.metrics.eventsDecoded.Load(),
		SetRequests:     b.metrics.setRequests.Load(),
		CommandsRun:     b.metrics.commandsRun.Load(),
		CommandFailures: b.metrics.commandFailures.Load(),
		Published:       b.metrics.published.Load(),
		PublishFailures: b.metrics.publishFailures.Load(),
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Error(msg, keysAndValues...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}

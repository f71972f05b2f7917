package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/x10-bridge/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "x10-bridge-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "test/x10",
	}
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *mockLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func TestStatusTopic(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"home/x10", "home/x10/bridge/status"},
		{"/home/x10/", "home/x10/bridge/status"},
		{"x10", "x10/bridge/status"},
	}

	for _, tt := range tests {
		if got := StatusTopic(tt.prefix); got != tt.want {
			t.Errorf("StatusTopic(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "user", Password: "pass"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "x10-bridge-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "user" || opts.Password != "pass" {
		t.Errorf("credentials not set")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 5s", opts.MaxReconnectInterval)
	}
	if !opts.ConnectRetry || opts.ConnectRetryInterval != time.Second {
		t.Errorf("ConnectRetry = %v interval %v, want true and 1s", opts.ConnectRetry, opts.ConnectRetryInterval)
	}
	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false, want true")
	}
	if opts.WillTopic != "test/x10/bridge/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if string(opts.WillPayload) != StatusOffline {
		t.Errorf("WillPayload = %q, want %q", opts.WillPayload, StatusOffline)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured without tls: true")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %v, want ssl://127.0.0.1:8883", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below TLS 1.2")
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"valid", "home/x10/C2", []byte(`"on"`), 1, nil},
		{"nil payload", "home/x10/C2", nil, 0, nil},
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "home/x10/C2", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "home/x10/C2", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validatePublish() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePublish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := newClient(testConfig())

	if c.IsConnected() {
		t.Error("IsConnected() = true for unconnected client")
	}
	if err := c.Publish("home/x10/C2", []byte(`"on"`), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	noop := func(string, []byte) error { return nil }
	if err := c.Subscribe("home/x10/+/set", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.Unsubscribe("home/x10/+/set"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
}

func TestClient_SubscribeValidation(t *testing.T) {
	c := newClient(testConfig())
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: error = %v", err)
	}
	if err := c.Subscribe("a/b", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos: error = %v", err)
	}
	if err := c.Subscribe("a/b", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: error = %v", err)
	}
}

func TestClient_HealthCheckCancelled(t *testing.T) {
	c := newClient(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.HealthCheck(ctx)
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("HealthCheck() error = %v, want context canceled", err)
	}
}

func TestClient_CloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestClient_SubscriptionTracking(t *testing.T) {
	c := newClient(testConfig())
	c.trackSubscription(subscription{topic: "a/+/set", qos: 1})
	c.trackSubscription(subscription{topic: "a/+/set", qos: 0})
	c.trackSubscription(subscription{topic: "b/#", qos: 0})

	if c.SubscriptionCount() != 2 {
		t.Errorf("SubscriptionCount() = %d, want 2", c.SubscriptionCount())
	}
	c.untrackSubscription("a/+/set")
	if c.HasSubscription("a/+/set") {
		t.Error("HasSubscription() = true after untrack")
	}
	if !c.HasSubscription("b/#") {
		t.Error("HasSubscription(b/#) = false")
	}
}

func TestClient_DispatchRecoversPanic(t *testing.T) {
	c := newClient(testConfig())
	logger := &mockLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "home/x10/C2/set", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "home/x10/C2/set", nil)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 {
		t.Errorf("errors logged = %d, want 1 (panic)", len(logger.errors))
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns logged = %d, want 1 (handler error)", len(logger.warns))
	}
}

func TestClient_DispatchWithoutLogger(t *testing.T) {
	c := newClient(testConfig())
	// Must not panic without a logger.
	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
}

func TestClient_Callbacks(t *testing.T) {
	c := newClient(testConfig())

	var lost error
	c.SetOnDisconnect(func(err error) { lost = err })
	c.connected = true

	c.handleDisconnect(errors.New("EOF"))

	if lost == nil || lost.Error() != "EOF" {
		t.Errorf("disconnect callback error = %v, want EOF", lost)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}

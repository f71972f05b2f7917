package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "x10-test"
  qos: 0
  topic_prefix: "/house/x10/"
controller:
  binary: "/usr/local/bin/heyu"
  monitor_command: "/usr/local/bin/heyu -c '/etc/heyu/x10.conf' monitor"
  alternate_transmitter: true
database:
  enabled: true
  path: "/tmp/journal.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker.Port = %d, want 1884", cfg.MQTT.Broker.Port)
	}
	if cfg.Prefix() != "house/x10" {
		t.Errorf("Prefix() = %q, want %q", cfg.Prefix(), "house/x10")
	}
	if !cfg.Controller.AlternateTransmitter {
		t.Error("Controller.AlternateTransmitter = false, want true")
	}
	if cfg.Controller.Binary != "/usr/local/bin/heyu" {
		t.Errorf("Controller.Binary = %q", cfg.Controller.Binary)
	}
	// Unset values keep their defaults.
	if !cfg.MQTT.RetainStatus {
		t.Error("MQTT.RetainStatus = false, want default true")
	}
	if cfg.Controller.CommandTimeout != 10 {
		t.Errorf("Controller.CommandTimeout = %d, want 10", cfg.Controller.CommandTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "mqtt: [unclosed")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing error", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  qos: 5
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "mqtt.qos") {
		t.Errorf("error = %v, want mqtt.qos message", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:    "empty broker host",
			modify:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: "mqtt.broker.host",
		},
		{
			name:    "broker port out of range",
			modify:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "negative qos",
			modify:  func(c *Config) { c.MQTT.QoS = -1 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "empty prefix",
			modify:  func(c *Config) { c.MQTT.TopicPrefix = "/" },
			wantErr: "mqtt.topic_prefix is required",
		},
		{
			name:    "wildcard prefix",
			modify:  func(c *Config) { c.MQTT.TopicPrefix = "home/+" },
			wantErr: "wildcards",
		},
		{
			name:    "missing controller binary",
			modify:  func(c *Config) { c.Controller.Binary = "" },
			wantErr: "controller.binary",
		},
		{
			name:    "blank monitor command",
			modify:  func(c *Config) { c.Controller.MonitorCommand = "   " },
			wantErr: "controller.monitor_command",
		},
		{
			name: "journal enabled without path",
			modify: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name:    "negative journal retention",
			modify:  func(c *Config) { c.Database.RetentionDays = -1 },
			wantErr: "database.retention_days",
		},
		{
			name:    "influxdb enabled without url",
			modify:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "x10" },
			wantErr: "influxdb.url",
		},
		{
			name:    "api enabled with bad port",
			modify:  func(c *Config) { c.API.Enabled = true; c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:   "api disabled ignores port",
			modify: func(c *Config) { c.API.Port = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetCommandTimeout(); got != 10*time.Second {
		t.Errorf("GetCommandTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetRestartDelay(); got != 5*time.Second {
		t.Errorf("GetRestartDelay() = %v, want 5s", got)
	}
	if got := cfg.API.ReadTimeout(); got != 10*time.Second {
		t.Errorf("API.ReadTimeout() = %v, want 10s", got)
	}
	if got := cfg.API.WriteTimeout(); got != 10*time.Second {
		t.Errorf("API.WriteTimeout() = %v, want 10s", got)
	}
	if got := cfg.API.IdleTimeout(); got != 60*time.Second {
		t.Errorf("API.IdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetJournalRetention(); got != 30*24*time.Hour {
		t.Errorf("GetJournalRetention() = %v, want 720h", got)
	}

	cfg.Database.RetentionDays = 0
	if got := cfg.GetJournalRetention(); got != 0 {
		t.Errorf("GetJournalRetention() = %v, want 0 when retention is disabled", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("X10BRIDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("X10BRIDGE_MQTT_PORT", "8883")
	t.Setenv("X10BRIDGE_MQTT_USERNAME", "testuser")
	t.Setenv("X10BRIDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("X10BRIDGE_TOPIC_PREFIX", "cottage/x10")
	t.Setenv("X10BRIDGE_CONTROLLER_TTY", "/dev/ttyUSB1")
	t.Setenv("X10BRIDGE_ALTERNATE_TRANSMITTER", "true")
	t.Setenv("X10BRIDGE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("X10BRIDGE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v", cfg.MQTT.Auth)
	}
	if cfg.MQTT.TopicPrefix != "cottage/x10" {
		t.Errorf("MQTT.TopicPrefix = %q", cfg.MQTT.TopicPrefix)
	}
	if cfg.Controller.TTY != "/dev/ttyUSB1" {
		t.Errorf("Controller.TTY = %q", cfg.Controller.TTY)
	}
	if !cfg.Controller.AlternateTransmitter {
		t.Error("Controller.AlternateTransmitter = false, want true")
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q", cfg.InfluxDB.Token)
	}
}

func TestApplyEnvOverrides_IgnoresMalformedNumbers(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("X10BRIDGE_MQTT_PORT", "not-a-port")
	t.Setenv("X10BRIDGE_ALTERNATE_TRANSMITTER", "maybe")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want default 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Controller.AlternateTransmitter {
		t.Error("Controller.AlternateTransmitter = true, want default false")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.TopicPrefix != "home/x10" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "home/x10")
	}
	if cfg.Controller.Binary != "heyu" {
		t.Errorf("Controller.Binary = %q, want heyu", cfg.Controller.Binary)
	}
	if cfg.Controller.MonitorCommand != "heyu monitor" {
		t.Errorf("Controller.MonitorCommand = %q", cfg.Controller.MonitorCommand)
	}
	if cfg.Database.Enabled {
		t.Error("Database.Enabled = true, want false")
	}
	if cfg.InfluxDB.Enabled {
		t.Error("InfluxDB.Enabled = true, want false")
	}
	if cfg.API.Enabled {
		t.Error("API.Enabled = true, want false")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load(example) error = %v", err)
	}
	if cfg.Prefix() != "home/x10" {
		t.Errorf("Prefix() = %q, want home/x10", cfg.Prefix())
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want 8090", cfg.API.Port)
	}
	if cfg.Database.RetentionDays != 30 {
		t.Errorf("Database.RetentionDays = %d, want 30", cfg.Database.RetentionDays)
	}
}

// Every key documented in the example config must map to a Config field.
func TestExampleConfig_NoUnknownKeys(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("opening example config: %v", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		t.Fatalf("example config has keys without a Config field: %v", err)
	}
}

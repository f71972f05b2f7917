// x10bridge connects an X10 power-line controller to an MQTT broker.
//
// It streams the controller's monitor output, publishes device status and
// house-wide events under a topic prefix, and turns "<prefix>/<device>/set"
// messages into controller commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nerrad567/x10-bridge/internal/api"
	"github.com/nerrad567/x10-bridge/internal/bridges/x10"
	"github.com/nerrad567/x10-bridge/internal/controller"
	"github.com/nerrad567/x10-bridge/internal/infrastructure/config"
	"github.com/nerrad567/x10-bridge/internal/infrastructure/database"
	"github.com/nerrad567/x10-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/x10-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/x10-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/x10-bridge/internal/journal"
	"github.com/nerrad567/x10-bridge/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when neither --config nor X10BRIDGE_CONFIG is set.
	defaultConfigPath = "configs/config.yaml"

	// configEnvVar names the environment variable holding the config path.
	configEnvVar = "X10BRIDGE_CONFIG"
)

// errMonitorExited is returned when the monitor gives up restarting.
var errMonitorExited = errors.New("monitor process exited")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	configPath  string
	showVersion bool
}

// parseFlags parses args into options.
func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("x10bridge", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to config file (env "+configEnvVar+")")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, fmt.Errorf("parsing flags: %w", err)
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// getConfigPath resolves the config path: flag, then environment, then default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// run is the application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "x10bridge %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	log := logging.Default()
	log.Info("starting x10 bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath(opts.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"prefix", cfg.Prefix(),
		"level", cfg.Logging.Level,
	)

	if cfg.Controller.ConfigFile != "" && cfg.Controller.TTY != "" {
		changed, patchErr := controller.PatchTTY(cfg.Controller.ConfigFile, cfg.Controller.TTY)
		if patchErr != nil {
			return fmt.Errorf("patching controller config: %w", patchErr)
		}
		log.Info("controller tty configured",
			"config_file", cfg.Controller.ConfigFile,
			"tty", cfg.Controller.TTY,
			"changed", changed,
		)
	}

	healthChecks := make(map[string]api.HealthChecker)

	// Journal (optional)
	var journalRepo journal.Repository
	var recorder x10.ActivityRecorder
	if cfg.Database.Enabled {
		db, openErr := database.Open(cfg.Database)
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		repo := journal.NewSQLiteRepository(db.DB)
		journalRepo = repo
		recorder = journal.NewRecorder(repo)
		healthChecks["database"] = db
		log.Info("journal enabled", "path", cfg.Database.Path)

		if maxAge := cfg.GetJournalRetention(); maxAge > 0 {
			retention, retErr := journal.NewRetention(repo, maxAge, journal.DefaultPruneInterval, log.Component("journal"))
			if retErr != nil {
				return fmt.Errorf("creating journal retention: %w", retErr)
			}
			retention.Start(ctx)
			defer retention.Stop()
			log.Info("journal retention enabled", "retention_days", cfg.Database.RetentionDays)
		}
	} else {
		log.Info("journal disabled")
	}

	// State history (optional)
	var states x10.StateRecorder
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		states = influxClient
		healthChecks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	healthChecks["mqtt"] = mqttClient
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"status_topic", mqttClient.StatusTopic(),
	)

	executor := controller.NewExecutor(cfg.Controller.Binary, cfg.GetCommandTimeout())
	executor.SetLogger(log.Component("executor"))

	bridge, err := x10.NewBridge(x10.BridgeOptions{
		Prefix:               cfg.Prefix(),
		AlternateTransmitter: cfg.Controller.AlternateTransmitter,
		RetainStatus:         cfg.MQTT.RetainStatus,
		QoS:                  byte(cfg.MQTT.QoS), //nolint:gosec // Validated to 0-2
		MQTTClient:           &mqttBridgeAdapter{client: mqttClient},
		Executor:             executor,
		Recorder:             recorder,
		States:               states,
		Logger:               log.Component("bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		bridge.Stop()
	}()

	monitor, err := controller.NewMonitor(controller.MonitorConfig{
		Command:            cfg.Controller.MonitorCommand,
		RestartOnFailure:   cfg.Controller.RestartOnFailure,
		RestartDelay:       cfg.GetRestartDelay(),
		MaxRestartAttempts: cfg.Controller.MaxRestartAttempts,
		OnLine:             bridge.HandleMonitorLine,
	})
	if err != nil {
		return fmt.Errorf("creating monitor: %w", err)
	}
	monitor.SetLogger(log.Component("monitor"))
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	defer func() {
		log.Info("stopping monitor")
		if stopErr := monitor.Stop(); stopErr != nil {
			log.Error("error stopping monitor", "error", stopErr)
		}
	}()

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:       cfg.API,
			Logger:       log.Component("api"),
			Bridge:       bridge,
			Monitor:      monitor,
			Version:      version,
			HealthChecks: healthChecks,
		}
		if journalRepo != nil {
			deps.Journal = journalRepo
		}
		server, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Deferred cleanup runs in reverse order: API, monitor, bridge, MQTT,
	// InfluxDB, journal retention, database.
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
		return nil
	case <-monitor.Done():
		if ctx.Err() != nil {
			return nil
		}
		stats := monitor.Stats()
		log.Error("monitor gave up", "restarts", stats.RestartCount, "last_error", stats.LastError)
		return fmt.Errorf("%w: %s", errMonitorExited, stats.LastError)
	}
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic string, payload []byte) error
// - Bridge expects: func(topic string, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements x10.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements x10.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// Unsubscribe implements x10.MQTTClient.
func (a *mqttBridgeAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// IsConnected implements x10.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

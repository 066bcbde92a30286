// devicehub - IoT device registration hub
//
// devicehub is a small HTTP server for home IoT fleets: devices running the
// companion relay firmware POST their state to /device/register on boot and
// periodically thereafter, and the hub serves an embedded web dashboard over
// the same port. The registry is purely in-memory — empty at start, gone at
// exit.
//
// Optional integrations (both off by default): announcing registrations over
// MQTT and recording registration telemetry to InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"devicehub/internal/api"
	"devicehub/internal/infrastructure/config"
	"devicehub/internal/infrastructure/influxdb"
	"devicehub/internal/infrastructure/logging"
	"devicehub/internal/infrastructure/mqtt"
	"devicehub/internal/registry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting devicehub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	cfg, err := loadConfig(log)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Initialise the device registry. It starts empty: devices re-register
	// themselves within minutes of the hub coming up.
	reg := registry.New()
	reg.SetLogger(log.With("component", "registry"))
	log.Info("device registry initialised")

	// Connect the MQTT announcer (optional)
	var mqttClient *mqtt.Client
	mqttClient, err = mqtt.Connect(cfg.MQTT)
	switch {
	case errors.Is(err, mqtt.ErrDisabled):
		mqttClient = nil
		log.Info("MQTT announcer disabled")
	case err != nil:
		// Enabled but unreachable is fatal: the operator asked for announce
		// and silently running without it would be a lie.
		return fmt.Errorf("connecting to MQTT: %w", err)
	default:
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	}

	// Connect the InfluxDB telemetry sink (optional). Unlike MQTT, a failed
	// connection degrades to disabled: telemetry is an observability extra
	// and should never keep devices from registering.
	var influxClient *influxdb.Client
	influxClient, err = influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		influxClient = nil
		log.Info("InfluxDB telemetry disabled")
	case err != nil:
		influxClient = nil
		log.Warn("InfluxDB unreachable, continuing without telemetry", "error", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Site:         cfg.Site,
		Logger:       log.With("component", "api"),
		Registry:     reg,
		MQTT:         mqttClient,
		Influx:       influxClient,
		DashboardDir: cfg.Dashboard.Dir,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Port 80 is the firmware's hard-coded default; binding it needs root
	// or CAP_NET_BIND_SERVICE. Use DEVICEHUB_API_PORT for development.
	log.Info("devicehub ready",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"timezone", cfg.Site.Timezone,
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drains in-flight requests)
	// 2. InfluxDB (if connected)
	// 3. MQTT (if connected)

	log.Info("devicehub stopped")
	return nil
}

// loadConfig resolves and loads the hub configuration.
//
// The path comes from DEVICEHUB_CONFIG when set. When the default path has
// no file, built-in defaults (plus env overrides) are used so the hub runs
// out of the box; an explicitly configured path must exist.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	path := os.Getenv("DEVICEHUB_CONFIG")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		log.Info("configuration loaded", "path", path)
		return cfg, nil
	}

	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.Load(defaultConfigPath)
		if err != nil {
			return nil, err
		}
		log.Info("configuration loaded", "path", defaultConfigPath)
		return cfg, nil
	}

	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	log.Info("no config file found, using built-in defaults")
	return cfg, nil
}

// Sentinel Node - camera and microphone sensor firmware
//
// This is the main entry point for the sentinel node daemon. The node
// captures frames and audio, runs on-device motion, voice and face
// detection, and reports detections to a controller over the telemetry
// channel with an optional MQTT mirror.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/visiona/sentinel-node/internal/infrastructure/config"
	"github.com/visiona/sentinel-node/internal/infrastructure/logging"
	"github.com/visiona/sentinel-node/internal/infrastructure/mqtt"
	"github.com/visiona/sentinel-node/internal/node"
	"github.com/visiona/sentinel-node/internal/sim"
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

// Simulated capture geometry, used until real drivers are wired in.
const (
	simFrameWidth  = 320
	simFrameHeight = 240
	simJumpPeriod  = 20
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting sentinel node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	opts := node.Options{
		Frames: sim.NewFrameGenerator(simFrameWidth, simFrameHeight, simJumpPeriod),
		Audio: sim.NewToneSource(cfg.Audio.SampleRate, 0.4,
			2*time.Second, 8*time.Second),
		Faces: &sim.FaceScanner{},
	}

	// Connect to the MQTT mirror (optional)
	if cfg.MQTT.Enabled {
		nodeID := cfg.Node.ID
		if nodeID == "" {
			nodeID = cfg.Node.Name
		}
		mirror, mqttErr := mqtt.Connect(cfg.MQTT, nodeID)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mirror.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mirror.SetLogger(log)
		mirror.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mirror.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		opts.Mirror = mirror
	} else {
		log.Info("MQTT mirror disabled")
	}

	n, err := node.New(cfg, log, opts)
	if err != nil {
		return fmt.Errorf("building node: %w", err)
	}

	log.Info("initialisation complete, starting pipeline", "node_id", n.ID())

	if err := n.Run(ctx); err != nil {
		return fmt.Errorf("running node: %w", err)
	}

	log.Info("sentinel node stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SENTINEL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SENTINEL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

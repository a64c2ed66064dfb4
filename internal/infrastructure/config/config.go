package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a Sentinel sensor node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Capture   CaptureConfig   `yaml:"capture"`
	Motion    MotionConfig    `yaml:"motion"`
	Audio     AudioConfig     `yaml:"audio"`
	Faces     FaceCacheConfig `yaml:"faces"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NodeConfig contains node identity settings.
type NodeConfig struct {
	// ID uniquely identifies this node to the controller and on MQTT topics.
	// If empty, a random ID is generated at startup.
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CaptureConfig contains frame capture scheduling settings.
type CaptureConfig struct {
	// Interval is how often the control loop requests a frame, in milliseconds.
	Interval int `yaml:"interval"`
}

// MotionConfig contains motion detection settings.
type MotionConfig struct {
	Enabled    bool `yaml:"enabled"`
	GridWidth  int  `yaml:"grid_width"`
	GridHeight int  `yaml:"grid_height"`

	// Threshold is the per-cell luma difference (0-255) above which a
	// grid cell counts as changed.
	Threshold int `yaml:"threshold"`

	// Sensitivity is the percentage of changed cells (0-100) required
	// to report motion.
	Sensitivity int `yaml:"sensitivity"`

	// Cooldown is the minimum time between reported detections, in milliseconds.
	Cooldown int `yaml:"cooldown"`

	Zones []ZoneConfig `yaml:"zones"`
}

// ZoneConfig describes a motion detection zone in percentage frame space.
type ZoneConfig struct {
	X           int  `yaml:"x"`
	Y           int  `yaml:"y"`
	Width       int  `yaml:"width"`
	Height      int  `yaml:"height"`
	Enabled     bool `yaml:"enabled"`
	Sensitivity int  `yaml:"sensitivity"`
}

// AudioConfig contains audio capture and voice detection settings.
type AudioConfig struct {
	Enabled    bool `yaml:"enabled"`
	SampleRate int  `yaml:"sample_rate"`
	BufferSize int  `yaml:"buffer_size"`

	// QueueDepth is the number of captured buffers held for downstream
	// consumers before the newest capture is dropped.
	QueueDepth int `yaml:"queue_depth"`

	VoiceDetection bool `yaml:"voice_detection"`

	// VoiceThreshold is the normalised RMS level (0-1) above which audio
	// counts as voice.
	VoiceThreshold float64 `yaml:"voice_threshold"`

	// VoiceDuration is the minimum active duration before a drop below
	// threshold clears the voice state, in milliseconds.
	VoiceDuration int `yaml:"voice_duration"`

	NoiseReduction bool `yaml:"noise_reduction"`

	// NoiseSamples is the number of RMS samples accumulated during
	// noise-floor calibration.
	NoiseSamples int `yaml:"noise_samples"`
}

// FaceCacheConfig contains face detection result cache settings.
type FaceCacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// TTL is the cache entry time-to-live, in milliseconds.
	TTL int `yaml:"ttl"`

	MaxSize   int  `yaml:"max_size"`
	Landmarks bool `yaml:"landmarks"`

	// SweepInterval is how often expired entries are swept, in milliseconds.
	SweepInterval int `yaml:"sweep_interval"`
}

// TelemetryConfig contains the controller connection settings.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
	TLS     bool   `yaml:"tls"`

	// Token is the bearer token sent in the auth message.
	// Always set SENTINEL_TELEMETRY_TOKEN in production.
	Token string `yaml:"token"`

	// ReconnectInterval is the fixed delay between reconnection attempts,
	// in milliseconds.
	ReconnectInterval int `yaml:"reconnect_interval"`

	// MaxReconnectAttempts caps reconnection attempts between successful
	// connections.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`

	// PingInterval is the keepalive ping interval while authenticated,
	// in milliseconds.
	PingInterval int `yaml:"ping_interval"`
}

// MQTTConfig contains the optional MQTT telemetry mirror settings.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SENTINEL_SECTION_KEY
// For example: SENTINEL_TELEMETRY_HOST, SENTINEL_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults for a sensor node.
func Default() *Config {
	return &Config{
		Node: NodeConfig{
			Name: "sentinel-node",
		},
		Capture: CaptureConfig{
			Interval: 500,
		},
		Motion: MotionConfig{
			Enabled:     true,
			GridWidth:   32,
			GridHeight:  24,
			Threshold:   30,
			Sensitivity: 20,
			Cooldown:    1000,
		},
		Audio: AudioConfig{
			Enabled:        true,
			SampleRate:     16000,
			BufferSize:     1024,
			QueueDepth:     8,
			VoiceDetection: true,
			VoiceThreshold: 0.2,
			VoiceDuration:  500,
			NoiseSamples:   1000,
		},
		Faces: FaceCacheConfig{
			Enabled:       true,
			TTL:           1000,
			MaxSize:       16,
			Landmarks:     true,
			SweepInterval: 10000,
		},
		Telemetry: TelemetryConfig{
			Enabled:              true,
			Host:                 "localhost",
			Port:                 8123,
			Path:                 "/api/websocket",
			ReconnectInterval:    5000,
			MaxReconnectAttempts: 10,
			PingInterval:         30000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SENTINEL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Node
	if v := os.Getenv("SENTINEL_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}

	// Telemetry
	if v := os.Getenv("SENTINEL_TELEMETRY_HOST"); v != "" {
		cfg.Telemetry.Host = v
	}
	if v := os.Getenv("SENTINEL_TELEMETRY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Telemetry.Port = port
		}
	}
	if v := os.Getenv("SENTINEL_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}

	// MQTT
	if v := os.Getenv("SENTINEL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SENTINEL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SENTINEL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("SENTINEL_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Motion validation
	if c.Motion.GridWidth < 1 || c.Motion.GridHeight < 1 {
		errs = append(errs, "motion.grid_width and motion.grid_height must be positive")
	}
	// A zero threshold or sensitivity would be indistinguishable from an
	// unset field and silently replaced by the detector's defaults, so
	// both are rejected here.
	if c.Motion.Threshold < 1 || c.Motion.Threshold > 255 {
		errs = append(errs, "motion.threshold must be between 1 and 255")
	}
	if c.Motion.Sensitivity < 1 || c.Motion.Sensitivity > 100 {
		errs = append(errs, "motion.sensitivity must be between 1 and 100")
	}

	// Audio validation
	if c.Audio.SampleRate < 1 {
		errs = append(errs, "audio.sample_rate must be positive")
	}
	if c.Audio.BufferSize < 1 {
		errs = append(errs, "audio.buffer_size must be positive")
	}
	if c.Audio.QueueDepth < 1 {
		errs = append(errs, "audio.queue_depth must be positive")
	}
	if c.Audio.VoiceThreshold < 0 || c.Audio.VoiceThreshold > 1 {
		errs = append(errs, "audio.voice_threshold must be between 0 and 1")
	}

	// Face cache validation
	if c.Faces.MaxSize < 1 {
		errs = append(errs, "faces.max_size must be positive")
	}

	// Telemetry validation
	if c.Telemetry.Enabled {
		if c.Telemetry.Host == "" {
			errs = append(errs, "telemetry.host is required when telemetry is enabled")
		}
		if c.Telemetry.Port < 1 || c.Telemetry.Port > 65535 {
			errs = append(errs, "telemetry.port must be between 1 and 65535")
		}
		if c.Telemetry.Token == "" {
			errs = append(errs, "telemetry.token is required when telemetry is enabled (set SENTINEL_TELEMETRY_TOKEN environment variable)")
		}
		if c.Telemetry.MaxReconnectAttempts < 1 {
			errs = append(errs, "telemetry.max_reconnect_attempts must be positive")
		}
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when the mirror is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CaptureInterval returns the capture interval as a Duration.
func (c *Config) CaptureInterval() time.Duration {
	return time.Duration(c.Capture.Interval) * time.Millisecond
}

// MotionCooldown returns the motion cooldown as a Duration.
func (c *Config) MotionCooldown() time.Duration {
	return time.Duration(c.Motion.Cooldown) * time.Millisecond
}

// VoiceDuration returns the minimum voice duration as a Duration.
func (c *Config) VoiceDuration() time.Duration {
	return time.Duration(c.Audio.VoiceDuration) * time.Millisecond
}

// FaceTTL returns the face cache TTL as a Duration.
func (c *Config) FaceTTL() time.Duration {
	return time.Duration(c.Faces.TTL) * time.Millisecond
}

// FaceSweepInterval returns the face cache sweep interval as a Duration.
func (c *Config) FaceSweepInterval() time.Duration {
	return time.Duration(c.Faces.SweepInterval) * time.Millisecond
}

// ReconnectInterval returns the telemetry reconnect interval as a Duration.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.Telemetry.ReconnectInterval) * time.Millisecond
}

// PingInterval returns the telemetry keepalive interval as a Duration.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Telemetry.PingInterval) * time.Millisecond
}

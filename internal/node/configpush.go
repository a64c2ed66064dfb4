package node

import (
	"encoding/json"
	"fmt"
)

// configPushVersion is the schema version this build understands.
// Pushes declaring a newer version are rejected rather than partially
// applied.
const configPushVersion = 1

// ConfigPush is a runtime reconfiguration document delivered over the
// telemetry channel or the MQTT mirror. Every section and every field
// is optional; absent fields leave the current setting untouched.
type ConfigPush struct {
	Version    int             `json:"version"`
	Motion     *MotionPush     `json:"motion,omitempty"`
	Audio      *AudioPush      `json:"audio,omitempty"`
	Faces      *FacesPush      `json:"faces,omitempty"`
	Connection *ConnectionPush `json:"connection,omitempty"`
}

// MotionPush carries motion detector overrides.
type MotionPush struct {
	Enabled     *bool      `json:"enabled,omitempty"`
	Threshold   *int       `json:"threshold,omitempty"`
	Sensitivity *int       `json:"sensitivity,omitempty"`
	CooldownMs  *int       `json:"cooldown_ms,omitempty"`
	Zones       []ZonePush `json:"zones,omitempty"`
}

// ZonePush is one detection zone rectangle in percentage units of frame
// space.
type ZonePush struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AudioPush carries audio processor overrides.
type AudioPush struct {
	VoiceDetection  *bool    `json:"voice_detection,omitempty"`
	VoiceThreshold  *float64 `json:"voice_threshold,omitempty"`
	VoiceDurationMs *int     `json:"voice_duration_ms,omitempty"`
	NoiseReduction  *bool    `json:"noise_reduction,omitempty"`
	NoiseSamples    *int     `json:"noise_samples,omitempty"`
}

// FacesPush carries face result cache overrides.
type FacesPush struct {
	CacheTTLMs   *int `json:"cache_ttl_ms,omitempty"`
	CacheMaxSize *int `json:"cache_max_size,omitempty"`
}

// ConnectionPush retargets the telemetry channel. Applying one triggers
// a full disconnect and reconnect cycle against the new endpoint.
type ConnectionPush struct {
	Host  *string `json:"host,omitempty"`
	Port  *int    `json:"port,omitempty"`
	Path  *string `json:"path,omitempty"`
	TLS   *bool   `json:"tls,omitempty"`
	Token *string `json:"token,omitempty"`
}

// ParseConfigPush validates raw against the push schema and decodes it.
//
// Parameters:
//   - raw: the JSON document as received from the wire
//
// Returns:
//   - *ConfigPush: the decoded push
//   - error: ErrInvalidPush when the document fails validation,
//     ErrUnsupportedVersion when it declares a future schema version
func ParseConfigPush(raw []byte) (*ConfigPush, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPush, err)
	}

	if err := pushValidator.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPush, err)
	}

	var push ConfigPush
	if err := json.Unmarshal(raw, &push); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPush, err)
	}

	if push.Version > configPushVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, push.Version)
	}

	return &push, nil
}

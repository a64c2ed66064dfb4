package node

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/visiona/sentinel-node/internal/motion"
)

// handleConfigEvent receives configuration pushes over the telemetry
// channel. It runs on the control loop (event dispatch happens inside
// Poll) but still goes through the push queue so both delivery paths
// apply identically.
func (n *Node) handleConfigEvent(eventType string, data json.RawMessage) {
	if err := n.enqueuePush(data); err != nil {
		n.log.Warn("config push rejected", "source", "telemetry", "error", err)
		n.reportError("config push rejected: " + err.Error())
	}
}

// handleConfigTopic receives configuration pushes from the MQTT mirror.
// It runs on a paho goroutine; the push crosses to the control loop via
// the queue.
func (n *Node) handleConfigTopic(topic string, payload []byte) error {
	if err := n.enqueuePush(payload); err != nil {
		return fmt.Errorf("config push rejected: %w", err)
	}
	return nil
}

// enqueuePush validates a raw push and hands it to the control loop.
// The queue is bounded; a full queue drops the push rather than block
// the caller.
func (n *Node) enqueuePush(raw []byte) error {
	push, err := ParseConfigPush(raw)
	if err != nil {
		return err
	}

	select {
	case n.pushes <- push:
		return nil
	default:
		return fmt.Errorf("%w: push queue full", ErrInvalidPush)
	}
}

// applyPush applies a validated push section by section. Absent sections
// and absent fields leave current settings untouched.
func (n *Node) applyPush(ctx context.Context, push *ConfigPush) {
	if push.Motion != nil {
		n.applyMotionPush(push.Motion)
	}
	if push.Audio != nil {
		n.applyAudioPush(push.Audio)
	}
	if push.Faces != nil {
		n.applyFacesPush(push.Faces)
	}
	if push.Connection != nil {
		n.applyConnectionPush(ctx, push.Connection)
	}

	n.log.Info("configuration push applied",
		"version", push.Version,
		"motion", push.Motion != nil,
		"audio", push.Audio != nil,
		"faces", push.Faces != nil,
		"connection", push.Connection != nil)

	if n.channel != nil && n.channel.Connected() {
		if err := n.channel.SendStatus("config_applied",
			fmt.Sprintf("version %d", push.Version)); err != nil {
			n.log.Debug("config ack failed", "error", err)
		}
	}
}

func (n *Node) applyMotionPush(p *MotionPush) {
	if n.motion == nil {
		n.log.Warn("motion push ignored, detector not configured")
		return
	}
	if p.Enabled != nil {
		n.motion.Enable(*p.Enabled)
	}
	if p.Threshold != nil {
		n.motion.SetThreshold(*p.Threshold)
	}
	if p.Sensitivity != nil {
		n.motion.SetSensitivity(*p.Sensitivity)
	}
	if p.CooldownMs != nil {
		n.motion.SetCooldown(time.Duration(*p.CooldownMs) * time.Millisecond)
	}
	if p.Zones != nil {
		zones := make([]motion.Zone, 0, len(p.Zones))
		for _, z := range p.Zones {
			zones = append(zones, motion.Zone{
				X:       z.X,
				Y:       z.Y,
				Width:   z.Width,
				Height:  z.Height,
				Enabled: true,
			})
		}
		if !n.motion.SetZones(zones) {
			n.log.Warn("zone list truncated", "requested", len(p.Zones))
		}
	}
}

func (n *Node) applyAudioPush(p *AudioPush) {
	if n.audio == nil {
		n.log.Warn("audio push ignored, processor not configured")
		return
	}
	if p.VoiceDetection != nil {
		n.audio.SetVoiceDetection(*p.VoiceDetection)
	}
	if p.VoiceThreshold != nil {
		n.audio.SetVoiceThreshold(*p.VoiceThreshold)
	}
	if p.VoiceDurationMs != nil {
		n.audio.SetVoiceDuration(time.Duration(*p.VoiceDurationMs) * time.Millisecond)
	}
	if p.NoiseReduction != nil {
		n.audio.SetNoiseReduction(*p.NoiseReduction)
	}
	if p.NoiseSamples != nil {
		n.audio.SetNoiseSamples(*p.NoiseSamples)
	}
}

func (n *Node) applyFacesPush(p *FacesPush) {
	if n.faces == nil {
		n.log.Warn("faces push ignored, cache not configured")
		return
	}
	if p.CacheTTLMs != nil {
		n.faces.SetTTL(time.Duration(*p.CacheTTLMs) * time.Millisecond)
	}
	if p.CacheMaxSize != nil {
		n.faces.SetMaxSize(*p.CacheMaxSize)
	}
}

// applyConnectionPush retargets the telemetry channel and runs a full
// reconnect cycle against the new endpoint.
func (n *Node) applyConnectionPush(ctx context.Context, p *ConnectionPush) {
	if n.channel == nil {
		n.log.Warn("connection push ignored, telemetry not configured")
		return
	}

	if p.Host != nil {
		n.endpoint.Host = *p.Host
	}
	if p.Port != nil {
		n.endpoint.Port = *p.Port
	}
	if p.Path != nil {
		n.endpoint.Path = *p.Path
	}
	if p.TLS != nil {
		n.endpoint.TLS = *p.TLS
	}

	n.channel.Disconnect()
	n.channel.SetDialer(n.dialerFor(n.endpoint))
	if p.Token != nil {
		n.channel.SetToken(*p.Token)
	}

	n.log.Info("telemetry endpoint changed",
		"host", n.endpoint.Host, "port", n.endpoint.Port, "tls", n.endpoint.TLS)

	if err := n.channel.Connect(ctx); err != nil {
		// The maintain loop keeps retrying against the new endpoint.
		n.log.Warn("reconnect to new endpoint failed", "error", err)
	}
}

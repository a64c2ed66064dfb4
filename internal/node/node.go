package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/visiona/sentinel-node/internal/audio"
	"github.com/visiona/sentinel-node/internal/facecache"
	"github.com/visiona/sentinel-node/internal/frame"
	"github.com/visiona/sentinel-node/internal/infrastructure/config"
	"github.com/visiona/sentinel-node/internal/infrastructure/logging"
	"github.com/visiona/sentinel-node/internal/infrastructure/mqtt"
	"github.com/visiona/sentinel-node/internal/motion"
	"github.com/visiona/sentinel-node/internal/telemetry"
)

const (
	// pollInterval is how often the control loop services the telemetry
	// channel and the audio queue between frame captures.
	pollInterval = 100 * time.Millisecond

	// heartbeatInterval is how often an "online" status message is sent
	// to the controller.
	heartbeatInterval = time.Minute

	// mirrorCheckInterval is how often the MQTT mirror connection is
	// health checked.
	mirrorCheckInterval = 30 * time.Second

	// pushQueueDepth bounds pending configuration pushes awaiting the
	// control loop. Pushes beyond the bound are dropped.
	pushQueueDepth = 4
)

// configEventType is the telemetry event carrying configuration pushes.
const configEventType = "config"

// Options supplies the hardware-facing dependencies the node cannot
// construct itself.
type Options struct {
	// Frames produces camera frames. Required when motion or face
	// detection is enabled.
	Frames FrameSource

	// Audio produces raw PCM capture buffers. Required when audio is
	// enabled.
	Audio audio.Source

	// Faces runs the actual face detector behind the result cache.
	// Required when face detection is enabled.
	Faces facecache.Detector

	// Mirror is an optional MQTT client mirroring telemetry to a broker.
	Mirror *mqtt.Client
}

// Node wires the capture pipeline together and drives it from a single
// control loop: frame capture, motion detection, face detection, audio
// state publication, the controller channel and the optional MQTT
// mirror.
//
// Thread Safety: Run owns all subsystems that are not independently
// thread-safe (motion detector, face cache, telemetry channel). External
// goroutines interact with the loop only through the push queue.
type Node struct {
	id  string
	cfg *config.Config
	log *logging.Logger

	frames  FrameSource
	motion  *motion.Detector
	audio   *audio.Processor
	faces   *facecache.Cache
	channel *telemetry.Channel
	mirror  *mqtt.Client
	topics  mqtt.Topics

	// endpoint is the current telemetry endpoint, mutated by connection
	// pushes.
	endpoint config.TelemetryConfig

	pushes chan *ConfigPush

	// landmarks gates landmark coordinates in published face telemetry.
	landmarks bool

	lastVoice bool
}

// New builds a node from configuration and hardware sources.
//
// Parameters:
//   - cfg: validated node configuration
//   - log: the process logger; nil falls back to the default logger
//   - opts: hardware sources and the optional MQTT mirror
//
// Returns:
//   - *Node: the assembled node, ready for Run
//   - error: ErrNoFrameSource when a frame-consuming subsystem is
//     enabled without a frame source, or a subsystem construction error
func New(cfg *config.Config, log *logging.Logger, opts Options) (*Node, error) {
	if log == nil {
		log = logging.Default()
	}

	if (cfg.Motion.Enabled || cfg.Faces.Enabled) && opts.Frames == nil {
		return nil, ErrNoFrameSource
	}

	id := cfg.Node.ID
	if id == "" {
		id = uuid.NewString()
		log.Info("generated node id", "node_id", id)
	}

	n := &Node{
		id:       id,
		cfg:      cfg,
		log:      log.With("component", "node", "node_id", id),
		frames:   opts.Frames,
		mirror:   opts.Mirror,
		endpoint: cfg.Telemetry,
		pushes:   make(chan *ConfigPush, pushQueueDepth),
	}

	if cfg.Motion.Enabled {
		det, err := motion.New(motion.Config{
			GridWidth:   cfg.Motion.GridWidth,
			GridHeight:  cfg.Motion.GridHeight,
			Threshold:   cfg.Motion.Threshold,
			Sensitivity: cfg.Motion.Sensitivity,
			Cooldown:    cfg.MotionCooldown(),
		})
		if err != nil {
			return nil, fmt.Errorf("motion detector: %w", err)
		}
		det.Enable(true)
		for _, z := range cfg.Motion.Zones {
			det.AddZone(motion.Zone{
				X:           z.X,
				Y:           z.Y,
				Width:       z.Width,
				Height:      z.Height,
				Enabled:     z.Enabled,
				Sensitivity: z.Sensitivity,
			})
		}
		n.motion = det
	}

	if cfg.Audio.Enabled && opts.Audio != nil {
		proc := audio.New(opts.Audio, audio.Config{
			BufferSize:     cfg.Audio.BufferSize,
			QueueDepth:     cfg.Audio.QueueDepth,
			VoiceDetection: cfg.Audio.VoiceDetection,
			VoiceThreshold: cfg.Audio.VoiceThreshold,
			VoiceDuration:  cfg.VoiceDuration(),
			NoiseReduction: cfg.Audio.NoiseReduction,
			NoiseSamples:   cfg.Audio.NoiseSamples,
		})
		proc.SetLogger(n.log)
		n.audio = proc
	}

	if cfg.Faces.Enabled && opts.Faces != nil {
		cache, err := facecache.New(opts.Faces, facecache.Config{
			TTL:           cfg.FaceTTL(),
			MaxSize:       cfg.Faces.MaxSize,
			SweepInterval: cfg.FaceSweepInterval(),
		})
		if err != nil {
			return nil, fmt.Errorf("face cache: %w", err)
		}
		cache.SetLogger(n.log)
		n.faces = cache
		n.landmarks = cfg.Faces.Landmarks
	}

	if cfg.Telemetry.Enabled {
		ch, err := telemetry.New(n.dialerFor(n.endpoint), telemetry.Config{
			Token:                cfg.Telemetry.Token,
			ReconnectInterval:    cfg.ReconnectInterval(),
			MaxReconnectAttempts: cfg.Telemetry.MaxReconnectAttempts,
			PingInterval:         cfg.PingInterval(),
		})
		if err != nil {
			return nil, fmt.Errorf("telemetry channel: %w", err)
		}
		ch.SetLogger(n.log)
		ch.SetOnReconnectExhausted(n.onReconnectExhausted)
		n.channel = ch
	}

	return n, nil
}

// ID returns the node identifier used on the wire and in MQTT topics.
func (n *Node) ID() string { return n.id }

func (n *Node) dialerFor(ep config.TelemetryConfig) *telemetry.WSDialer {
	return telemetry.NewWSDialer(telemetry.WSDialerConfig{
		Host: ep.Host,
		Port: ep.Port,
		Path: ep.Path,
		TLS:  ep.TLS,
	})
}

// Run starts the audio worker, connects the telemetry channel, registers
// push subscriptions and drives the control loop until ctx is cancelled.
//
// Returns:
//   - error: a startup failure, or nil after a clean shutdown
func (n *Node) Run(ctx context.Context) error {
	if n.audio != nil {
		if err := n.audio.Begin(); err != nil {
			return fmt.Errorf("audio begin: %w", err)
		}
		if err := n.audio.Start(); err != nil {
			return fmt.Errorf("audio start: %w", err)
		}
		defer func() {
			if err := n.audio.Stop(); err != nil {
				n.log.Warn("audio stop failed", "error", err)
			}
		}()

		if n.cfg.Audio.NoiseReduction {
			if err := n.audio.CalibrateNoiseFloor(ctx); err != nil {
				n.log.Warn("noise floor calibration failed", "error", err)
			} else {
				n.log.Info("noise floor calibrated",
					"floor", n.audio.Snapshot().NoiseFloor)
			}
		}
	}

	if n.channel != nil {
		if err := n.channel.Connect(ctx); err != nil {
			// The maintain loop retries; startup proceeds offline.
			n.log.Warn("initial controller connect failed", "error", err)
		}
		if err := n.channel.Subscribe(configEventType, n.handleConfigEvent); err != nil {
			n.log.Warn("config subscription deferred", "error", err)
		}
		defer n.channel.Disconnect()
	}

	if n.mirror != nil {
		topic := n.topics.Config(n.id)
		if err := n.mirror.Subscribe(topic, byte(n.cfg.MQTT.QoS), n.handleConfigTopic); err != nil {
			n.log.Warn("mirror config subscription failed",
				"topic", topic, "error", err)
		}
	}

	n.log.Info("node running",
		"capture_interval", n.cfg.CaptureInterval(),
		"motion", n.motion != nil,
		"audio", n.audio != nil,
		"faces", n.faces != nil,
		"telemetry", n.channel != nil,
		"mirror", n.mirror != nil)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.loop(ctx) })
	if n.mirror != nil {
		g.Go(func() error { return n.watchMirror(ctx) })
	}
	return g.Wait()
}

// loop is the control loop. Every subsystem that is not independently
// thread-safe is touched only from here.
func (n *Node) loop(ctx context.Context) error {
	capture := time.NewTicker(n.cfg.CaptureInterval())
	defer capture.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			n.log.Info("control loop stopping")
			return nil
		case <-poll.C:
			if n.channel != nil {
				n.channel.Poll(ctx)
			}
			n.serviceAudio()
		case <-capture.C:
			n.captureCycle(ctx)
		case <-heartbeat.C:
			n.sendHeartbeat()
		case push := <-n.pushes:
			n.applyPush(ctx, push)
		}
	}
}

// watchMirror periodically verifies the MQTT mirror connection. The paho
// client reconnects on its own; this only surfaces prolonged outages.
func (n *Node) watchMirror(ctx context.Context) error {
	ticker := time.NewTicker(mirrorCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := n.mirror.HealthCheck(ctx); err != nil {
				n.log.Warn("mirror unhealthy", "error", err)
			}
		}
	}
}

// captureCycle grabs one frame and runs motion and face detection on it.
func (n *Node) captureCycle(ctx context.Context) {
	if n.frames == nil {
		return
	}

	f, err := n.frames.Capture(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			n.log.Debug("frame capture failed", "error", err)
		}
		return
	}

	if n.motion == nil || !n.motion.Detect(f) {
		return
	}

	msg := telemetry.MotionMessage{
		Detected:  true,
		Magnitude: int(n.motion.Magnitude()),
		Timestamp: time.Now().Unix(),
	}
	n.publishMotion(msg)

	n.detectFaces(f)
}

// detectFaces runs the cached face detector on a frame that triggered
// motion and publishes any faces found.
func (n *Node) detectFaces(f *frame.Frame) {
	if n.faces == nil {
		return
	}

	res, err := n.faces.DetectFaces(f)
	if err != nil {
		n.log.Warn("face detection failed", "error", err)
		n.reportError("face detection failed")
		return
	}
	if res.Faces == 0 {
		return
	}

	n.publishFaces(faceMessage(res, n.landmarks))
}

// faceMessage converts a cache result into the wire payload. Landmark
// coordinates are included only when the node is configured to publish
// them.
func faceMessage(res *facecache.Result, landmarks bool) telemetry.FaceDetectionMessage {
	msg := telemetry.FaceDetectionMessage{
		Faces:       res.Faces,
		Confidences: res.Confidences,
	}
	for _, b := range res.Boxes {
		msg.Boxes = append(msg.Boxes, telemetry.BoundingBox{
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		})
	}
	if landmarks && res.HasLandmarks {
		for _, face := range res.Landmarks {
			pts := make([]telemetry.LandmarkPoint, 0, len(face))
			for _, p := range face {
				pts = append(pts, telemetry.LandmarkPoint{X: p.X, Y: p.Y})
			}
			msg.Landmarks = append(msg.Landmarks, pts)
		}
	}
	return msg
}

// serviceAudio drains queued capture buffers and publishes voice state
// transitions.
func (n *Node) serviceAudio() {
	if n.audio == nil {
		return
	}

	// Buffers are drained so the worker never hits the drop path during
	// normal operation; raw audio itself is not forwarded.
	for {
		if _, ok := n.audio.NextChunk(); !ok {
			break
		}
	}

	state := n.audio.Snapshot()
	if state.VoiceDetected == n.lastVoice {
		return
	}
	n.lastVoice = state.VoiceDetected

	msg := telemetry.VoiceMessage{
		Detected:   state.VoiceDetected,
		Level:      state.Level,
		DurationMs: state.VoiceDuration.Milliseconds(),
		Timestamp:  time.Now().Unix(),
	}
	n.publishVoice(msg)
}

func (n *Node) publishMotion(msg telemetry.MotionMessage) {
	n.log.Info("motion detected", "magnitude", msg.Magnitude)
	if n.channel != nil {
		if err := n.channel.SendMotion(msg); err != nil && !errors.Is(err, telemetry.ErrNotConnected) {
			n.log.Warn("motion send failed", "error", err)
		}
	}
	n.mirrorPublish(n.topics.Motion(n.id), wirePayload(msg, "motion"))
}

func (n *Node) publishVoice(msg telemetry.VoiceMessage) {
	n.log.Info("voice state changed", "detected", msg.Detected, "level", msg.Level)
	if n.channel != nil {
		if err := n.channel.SendVoice(msg); err != nil && !errors.Is(err, telemetry.ErrNotConnected) {
			n.log.Warn("voice send failed", "error", err)
		}
	}
	n.mirrorPublish(n.topics.Voice(n.id), wirePayload(msg, "voice"))
}

func (n *Node) publishFaces(msg telemetry.FaceDetectionMessage) {
	n.log.Info("faces detected", "faces", msg.Faces)
	if n.channel != nil {
		if err := n.channel.SendFaceDetection(msg); err != nil && !errors.Is(err, telemetry.ErrNotConnected) {
			n.log.Warn("face send failed", "error", err)
		}
	}
	n.mirrorPublish(n.topics.Faces(n.id), wirePayload(msg, "face_detection"))
}

// wirePayload marshals a telemetry message for the MQTT mirror, stamping
// the type field the channel senders normally fill in.
func wirePayload(msg any, msgType string) []byte {
	switch m := msg.(type) {
	case telemetry.MotionMessage:
		m.Type = msgType
		msg = m
	case telemetry.VoiceMessage:
		m.Type = msgType
		msg = m
	case telemetry.FaceDetectionMessage:
		m.Type = msgType
		msg = m
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return data
}

func (n *Node) mirrorPublish(topic string, payload []byte) {
	if n.mirror == nil || payload == nil {
		return
	}
	if err := n.mirror.PublishEvent(topic, payload); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
		n.log.Warn("mirror publish failed", "topic", topic, "error", err)
	}
}

func (n *Node) sendHeartbeat() {
	if n.channel == nil || !n.channel.Connected() {
		return
	}
	if err := n.channel.SendStatus("online", ""); err != nil {
		n.log.Debug("heartbeat send failed", "error", err)
	}
}

// reportError forwards a node-side failure to the controller,
// best-effort.
func (n *Node) reportError(text string) {
	if n.channel == nil {
		return
	}
	if err := n.channel.SendError(text); err != nil && !errors.Is(err, telemetry.ErrNotConnected) {
		n.log.Debug("error report failed", "error", err)
	}
}

// onReconnectExhausted surfaces a dead controller link on the mirror and
// in the log. The channel stays idle until Connect or SetToken.
func (n *Node) onReconnectExhausted(attempts int) {
	n.log.Error("controller unreachable, reconnection suspended",
		"attempts", attempts)
	if n.mirror != nil {
		payload := fmt.Sprintf(
			`{"node_id":%q,"status":"degraded","reason":"controller unreachable","attempts":%d}`,
			n.id, attempts)
		if err := n.mirror.PublishRetained(n.topics.Status(n.id), []byte(payload)); err != nil {
			n.log.Warn("status publish failed", "error", err)
		}
	}
}

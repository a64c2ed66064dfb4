package audio

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"time"
)

// Processing defaults for a 16 kHz mono capture.
const (
	// DefaultBufferSize is the capture buffer size in bytes.
	DefaultBufferSize = 1024

	// DefaultQueueDepth is the number of captured buffers queued for
	// downstream consumers.
	DefaultQueueDepth = 8

	// DefaultVoiceThreshold is the normalised RMS level above which audio
	// counts as voice.
	DefaultVoiceThreshold = 0.2

	// DefaultVoiceDuration is the minimum active duration before a drop
	// below threshold clears the voice state.
	DefaultVoiceDuration = 500 * time.Millisecond

	// DefaultNoiseSamples is the number of RMS samples accumulated during
	// noise-floor calibration.
	DefaultNoiseSamples = 1000

	// calibrationTimeout bounds a noise-floor calibration pass.
	calibrationTimeout = 5 * time.Second
)

// Config holds the initial processor settings.
type Config struct {
	BufferSize     int
	QueueDepth     int
	VoiceDetection bool
	VoiceThreshold float64
	VoiceDuration  time.Duration
	NoiseReduction bool
	NoiseSamples   int
}

// State is a snapshot of the audio worker's published state.
//
// The worker is the only writer; consumers read copies via Snapshot and
// never touch worker-owned fields directly.
type State struct {
	Level         float64
	NoiseFloor    float64
	VoiceDetected bool
	VoiceStart    time.Time
	VoiceDuration time.Duration
}

// calibration accumulates raw RMS samples for a noise-floor pass.
type calibration struct {
	sum    float64
	count  int
	target int
	done   chan struct{}
}

// Processor captures audio from a blocking Source on a dedicated worker
// goroutine, computes RMS levels, performs voice-activity detection and
// queues raw capture buffers for downstream consumers.
//
// Thread Safety:
//   - Begin/Start/Stop are intended for the control loop.
//   - Snapshot, NextChunk, ClearQueue and all setters are safe to call
//     concurrently with the worker.
type Processor struct {
	source Source
	logger Logger

	// buf is the worker's capture buffer, allocated at Begin.
	buf     []byte
	bufSize int
	queue   chan []byte

	mu             sync.Mutex
	state          State
	voiceDetection bool
	voiceThreshold float64
	voiceDuration  time.Duration
	noiseReduction bool
	noiseSamples   int
	calib          *calibration
	dropped        uint64

	initialized bool
	running     bool
	stop        chan struct{}
	done        chan struct{}

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a processor bound to the given source.
// Call Begin before Start.
func New(source Source, cfg Config) *Processor {
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	if cfg.VoiceThreshold == 0 {
		cfg.VoiceThreshold = DefaultVoiceThreshold
	}
	if cfg.VoiceDuration == 0 {
		cfg.VoiceDuration = DefaultVoiceDuration
	}
	if cfg.NoiseSamples < 1 {
		cfg.NoiseSamples = DefaultNoiseSamples
	}

	return &Processor{
		source:         source,
		logger:         noopLogger{},
		queue:          make(chan []byte, cfg.QueueDepth),
		bufSize:        cfg.BufferSize,
		voiceDetection: cfg.VoiceDetection,
		voiceThreshold: cfg.VoiceThreshold,
		voiceDuration:  cfg.VoiceDuration,
		noiseReduction: cfg.NoiseReduction,
		noiseSamples:   cfg.NoiseSamples,
		now:            time.Now,
	}
}

// SetLogger sets the logger for the processor.
func (p *Processor) SetLogger(logger Logger) {
	p.logger = logger
}

// Begin acquires resources for capture.
//
// Failure here is fatal for the audio subsystem: the caller must not Start
// a processor whose Begin returned an error.
func (p *Processor) Begin() error {
	if p.initialized {
		return nil
	}
	if p.source == nil {
		return ErrNoSource
	}

	p.buf = make([]byte, p.bufSize)
	p.initialized = true
	return nil
}

// Start launches the capture worker.
func (p *Processor) Start() error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if p.running {
		return ErrAlreadyRunning
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true
	go p.worker()
	return nil
}

// Stop signals the worker and waits for it to exit.
//
// The wait is bounded by the source's own read timeout; the worker cannot
// be interrupted mid-read.
func (p *Processor) Stop() error {
	if !p.running {
		return ErrNotRunning
	}

	close(p.stop)
	<-p.done
	p.running = false
	return nil
}

// Running reports whether the capture worker is active.
func (p *Processor) Running() bool { return p.running }

// worker is the dedicated capture goroutine. It performs blocking reads,
// processes each buffer and forwards a copy to the queue.
func (p *Processor) worker() {
	defer close(p.done)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		n, err := p.source.Read(p.buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				p.logger.Info("audio source closed, worker exiting")
				return
			}
			p.logger.Warn("audio read failed", "error", err)
			continue
		}
		if n == 0 {
			continue
		}

		p.process(p.buf[:n])

		// Hand a copy to the queue. If the queue is full the newest
		// capture is dropped rather than blocking real-time capture.
		chunk := make([]byte, n)
		copy(chunk, p.buf[:n])
		select {
		case p.queue <- chunk:
		default:
			p.mu.Lock()
			p.dropped++
			p.mu.Unlock()
		}
	}
}

// process updates levels, calibration and voice state from one capture.
func (p *Processor) process(buf []byte) {
	raw := rmsLevel(buf)
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if c := p.calib; c != nil && c.count < c.target {
		c.sum += raw
		c.count++
		if c.count >= c.target {
			close(c.done)
		}
	}

	level := raw
	if p.noiseReduction {
		level = applyNoiseFloor(level, p.state.NoiseFloor)
	}
	p.state.Level = level

	if p.voiceDetection {
		p.updateVoiceLocked(level, now)
	}
}

// rmsLevel computes the root-mean-square of signed 16-bit little-endian
// samples, normalised to [0, 1].
func rmsLevel(buf []byte) float64 {
	count := len(buf) / 2
	if count == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < count; i++ {
		s := int16(uint16(buf[2*i]) | uint16(buf[2*i+1])<<8)
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(count))
}

// applyNoiseFloor subtracts the calibrated floor, clamped at zero.
func applyNoiseFloor(level, floor float64) float64 {
	if level > floor {
		return level - floor
	}
	return 0
}

// CalibrateNoiseFloor measures the ambient noise floor.
//
// It blocks the caller while the worker accumulates mean RMS over the
// configured sample count, bounded by a 5-second timeout. A partial
// accumulation at timeout still updates the floor.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: ErrNotRunning if the worker is stopped, ctx.Err() on cancel
func (p *Processor) CalibrateNoiseFloor(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrNotRunning
	}
	c := &calibration{
		target: p.noiseSamples,
		done:   make(chan struct{}),
	}
	p.calib = c
	p.mu.Unlock()

	var cancelled error
	select {
	case <-c.done:
	case <-time.After(calibrationTimeout):
	case <-ctx.Done():
		cancelled = ctx.Err()
	}

	p.mu.Lock()
	if c.count > 0 {
		p.state.NoiseFloor = c.sum / float64(c.count)
	}
	p.calib = nil
	p.mu.Unlock()

	return cancelled
}

// Snapshot returns a copy of the worker's published state.
func (p *Processor) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// NextChunk returns the oldest queued capture buffer without blocking.
// Ownership of the returned buffer transfers to the caller.
func (p *Processor) NextChunk() ([]byte, bool) {
	select {
	case chunk := <-p.queue:
		return chunk, true
	default:
		return nil, false
	}
}

// ClearQueue drains all queued capture buffers.
func (p *Processor) ClearQueue() {
	for {
		select {
		case <-p.queue:
		default:
			return
		}
	}
}

// Dropped returns the number of capture buffers dropped on a full queue.
func (p *Processor) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// SetVoiceDetection enables or disables voice-activity detection.
func (p *Processor) SetVoiceDetection(enabled bool) {
	p.mu.Lock()
	p.voiceDetection = enabled
	p.mu.Unlock()
}

// VoiceDetectionEnabled reports whether voice-activity detection is active.
func (p *Processor) VoiceDetectionEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceDetection
}

// SetVoiceThreshold sets the normalised RMS level above which audio counts
// as voice.
func (p *Processor) SetVoiceThreshold(threshold float64) {
	p.mu.Lock()
	p.voiceThreshold = threshold
	p.mu.Unlock()
}

// VoiceThreshold returns the configured voice threshold.
func (p *Processor) VoiceThreshold() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceThreshold
}

// SetVoiceDuration sets the minimum active duration before a drop below
// threshold clears the voice state.
func (p *Processor) SetVoiceDuration(d time.Duration) {
	p.mu.Lock()
	p.voiceDuration = d
	p.mu.Unlock()
}

// VoiceDuration returns the configured minimum voice duration.
func (p *Processor) VoiceDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceDuration
}

// SetNoiseReduction enables or disables noise-floor subtraction.
func (p *Processor) SetNoiseReduction(enabled bool) {
	p.mu.Lock()
	p.noiseReduction = enabled
	p.mu.Unlock()
}

// NoiseReductionEnabled reports whether noise-floor subtraction is active.
func (p *Processor) NoiseReductionEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noiseReduction
}

// SetNoiseSamples sets the calibration sample count.
func (p *Processor) SetNoiseSamples(samples int) {
	p.mu.Lock()
	if samples > 0 {
		p.noiseSamples = samples
	}
	p.mu.Unlock()
}

// NoiseSamples returns the calibration sample count.
func (p *Processor) NoiseSamples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noiseSamples
}

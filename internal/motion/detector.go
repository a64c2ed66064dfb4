package motion

import (
	"time"

	"github.com/visiona/sentinel-node/internal/frame"
)

// Detection defaults matching a 32x24 grid over a QVGA-class sensor.
const (
	// DefaultGridWidth and DefaultGridHeight size the detection grid.
	DefaultGridWidth  = 32
	DefaultGridHeight = 24

	// DefaultThreshold is the per-cell luma difference (0-255) above which
	// a cell counts as changed.
	DefaultThreshold = 30

	// DefaultSensitivity is the percentage of changed cells (0-100)
	// required to report motion.
	DefaultSensitivity = 20

	// DefaultCooldown is the minimum time between reported detections.
	DefaultCooldown = time.Second

	// HistorySize is the number of magnitude samples retained.
	HistorySize = 10
)

// Config holds the initial detector settings.
type Config struct {
	GridWidth   int
	GridHeight  int
	Threshold   int
	Sensitivity int
	Cooldown    time.Duration
}

// Detector performs grid-based motion detection over downsampled luma frames.
//
// Each incoming frame is converted to luma, downscaled into a fixed grid and
// diffed cell-by-cell against the previous grid. Motion is reported when the
// percentage of changed cells exceeds the sensitivity, the cooldown has
// elapsed, and (if zones are configured) at least one changed cell falls in
// an enabled zone.
//
// Detector is not safe for concurrent use; it is owned by the control loop.
type Detector struct {
	enabled bool

	gridWidth  int
	gridHeight int

	// current and previous are always the same size, allocated together.
	current  []byte
	previous []byte

	threshold   int
	sensitivity int
	cooldown    time.Duration

	zones []Zone

	detected   bool
	lastMotion time.Time
	magnitude  float64
	history    []float64

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a motion detector and allocates its grid buffers.
//
// Zero or negative grid dimensions are rejected; other zero-valued settings
// fall back to the package defaults. A detector that fails to construct
// must not be used.
//
// Returns:
//   - *Detector: enabled detector ready for Detect calls
//   - error: ErrBadGrid if the grid dimensions are invalid
func New(cfg Config) (*Detector, error) {
	if cfg.GridWidth < 1 || cfg.GridHeight < 1 {
		return nil, ErrBadGrid
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = DefaultSensitivity
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}

	size := cfg.GridWidth * cfg.GridHeight
	return &Detector{
		enabled:     true,
		gridWidth:   cfg.GridWidth,
		gridHeight:  cfg.GridHeight,
		current:     make([]byte, size),
		previous:    make([]byte, size),
		threshold:   cfg.Threshold,
		sensitivity: cfg.Sensitivity,
		cooldown:    cfg.Cooldown,
		history:     make([]float64, 0, HistorySize),
		now:         time.Now,
	}, nil
}

// Detect processes one frame and reports whether motion was detected.
//
// A nil frame, a disabled detector, or an unconvertible pixel format make
// this a no-op returning false; the frame is skipped, not retried. Every
// successfully processed frame appends its magnitude to the history,
// whether or not motion is reported.
func (d *Detector) Detect(f *frame.Frame) bool {
	if !d.enabled || f == nil || d.current == nil || d.previous == nil {
		return false
	}

	luma, err := frame.ToLuma(f)
	if err != nil {
		// Transient capture failure: skip this cycle.
		return false
	}

	// Retire the current grid and fill the freed buffer with the new frame.
	d.previous, d.current = d.current, d.previous
	frame.Downscale(luma, f.Width, f.Height, d.current, d.gridWidth, d.gridHeight)

	magnitude := d.frameDifference()
	d.pushHistory(magnitude)

	now := d.now()
	if magnitude > float64(d.sensitivity) && now.Sub(d.lastMotion) > d.cooldown {
		if len(d.zones) == 0 || d.changedCellInZones() {
			d.detected = true
			d.lastMotion = now
			d.magnitude = magnitude
			return true
		}
	}

	d.detected = false
	return false
}

// frameDifference returns the percentage (0-100) of grid cells whose
// absolute luma difference exceeds the threshold.
func (d *Detector) frameDifference() float64 {
	changed := 0
	for i := range d.current {
		if absDiff(d.current[i], d.previous[i]) > d.threshold {
			changed++
		}
	}
	if changed == 0 {
		return 0
	}
	return float64(changed*100) / float64(len(d.current))
}

// changedCellInZones reports whether any changed grid cell falls inside at
// least one enabled zone.
func (d *Detector) changedCellInZones() bool {
	for y := 0; y < d.gridHeight; y++ {
		for x := 0; x < d.gridWidth; x++ {
			idx := y*d.gridWidth + x
			if absDiff(d.current[idx], d.previous[idx]) <= d.threshold {
				continue
			}
			for i := range d.zones {
				if d.zones[i].Enabled && d.cellInZone(x, y, d.zones[i]) {
					return true
				}
			}
		}
	}
	return false
}

// cellInZone maps a grid cell to percentage frame space and tests half-open
// containment: the zone origin is inside, the far edges are outside.
func (d *Detector) cellInZone(x, y int, z Zone) bool {
	px := float64(x) * 100 / float64(d.gridWidth)
	py := float64(y) * 100 / float64(d.gridHeight)

	return px >= float64(z.X) && px < float64(z.X+z.Width) &&
		py >= float64(z.Y) && py < float64(z.Y+z.Height)
}

// pushHistory appends a magnitude sample, evicting the oldest beyond capacity.
func (d *Detector) pushHistory(magnitude float64) {
	d.history = append(d.history, magnitude)
	if len(d.history) > HistorySize {
		d.history = d.history[len(d.history)-HistorySize:]
	}
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Configure updates threshold, sensitivity and cooldown in one call.
func (d *Detector) Configure(threshold, sensitivity int, cooldown time.Duration) {
	d.threshold = threshold
	d.sensitivity = sensitivity
	d.cooldown = cooldown
}

// Enable switches detection on or off. A disabled detector ignores frames.
func (d *Detector) Enable(enabled bool) { d.enabled = enabled }

// Enabled reports whether the detector processes frames.
func (d *Detector) Enabled() bool { return d.enabled }

// SetThreshold sets the per-cell luma difference threshold.
func (d *Detector) SetThreshold(threshold int) { d.threshold = threshold }

// Threshold returns the per-cell luma difference threshold.
func (d *Detector) Threshold() int { return d.threshold }

// SetSensitivity sets the changed-cell percentage required to report motion.
func (d *Detector) SetSensitivity(sensitivity int) { d.sensitivity = sensitivity }

// Sensitivity returns the changed-cell percentage required to report motion.
func (d *Detector) Sensitivity() int { return d.sensitivity }

// SetCooldown sets the minimum interval between reported detections.
func (d *Detector) SetCooldown(cooldown time.Duration) { d.cooldown = cooldown }

// Cooldown returns the minimum interval between reported detections.
func (d *Detector) Cooldown() time.Duration { return d.cooldown }

// Detected reports whether the most recent Detect call reported motion.
func (d *Detector) Detected() bool { return d.detected }

// LastMotionTime returns when motion was last reported.
func (d *Detector) LastMotionTime() time.Time { return d.lastMotion }

// Magnitude returns the changed-cell percentage of the last reported motion.
func (d *Detector) Magnitude() float64 { return d.magnitude }

// History returns a copy of the retained magnitude samples, oldest first.
func (d *Detector) History() []float64 {
	out := make([]float64, len(d.history))
	copy(out, d.history)
	return out
}

// ClearHistory discards all retained magnitude samples.
func (d *Detector) ClearHistory() { d.history = d.history[:0] }

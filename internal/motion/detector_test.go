package motion

import (
	"errors"
	"testing"
	"time"

	"github.com/visiona/sentinel-node/internal/frame"
)

// grayFrame builds a grayscale frame whose buffer maps 1:1 onto the grid.
func grayFrame(w, h int, fill byte) *frame.Frame {
	buf := make([]byte, w*h)
	for i := range buf {
		buf[i] = fill
	}
	return &frame.Frame{Width: w, Height: h, Format: frame.FormatGrayscale, Buffer: buf}
}

// newTestDetector creates a 4x4-grid detector with a controllable clock.
func newTestDetector(t *testing.T, cfg Config) (*Detector, *time.Time) {
	t.Helper()
	if cfg.GridWidth == 0 {
		cfg.GridWidth = 4
		cfg.GridHeight = 4
	}
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	clock := time.Unix(1000, 0)
	d.now = func() time.Time { return clock }
	return d, &clock
}

func TestNew_InvalidGrid(t *testing.T) {
	_, err := New(Config{GridWidth: 0, GridHeight: 24})
	if !errors.Is(err, ErrBadGrid) {
		t.Errorf("New() error = %v, want ErrBadGrid", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	d, err := New(Config{GridWidth: 32, GridHeight: 24})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %d, want %d", d.Threshold(), DefaultThreshold)
	}
	if d.Sensitivity() != DefaultSensitivity {
		t.Errorf("Sensitivity() = %d, want %d", d.Sensitivity(), DefaultSensitivity)
	}
	if d.Cooldown() != DefaultCooldown {
		t.Errorf("Cooldown() = %v, want %v", d.Cooldown(), DefaultCooldown)
	}
}

func TestDetect_IdenticalFramesNoMotion(t *testing.T) {
	d, _ := newTestDetector(t, Config{Threshold: 1, Sensitivity: 1})

	f := grayFrame(4, 4, 128)
	d.Detect(f)
	if d.Detect(f) {
		t.Error("Detect() = true for bit-identical frames")
	}

	history := d.History()
	if last := history[len(history)-1]; last != 0 {
		t.Errorf("magnitude for identical frames = %v, want 0", last)
	}
}

func TestDetect_QuarterChangedTriggersOnce(t *testing.T) {
	d, clock := newTestDetector(t, Config{
		Threshold:   30,
		Sensitivity: 20,
		Cooldown:    time.Second,
	})

	base := grayFrame(4, 4, 0)
	d.Detect(base)

	// Change 4 of 16 cells (25%) well beyond the threshold.
	changed := grayFrame(4, 4, 0)
	for i := 0; i < 4; i++ {
		changed.Buffer[i] = 200
	}

	*clock = clock.Add(2 * time.Second)
	if !d.Detect(changed) {
		t.Fatal("Detect() = false, want motion at 25% change with sensitivity 20")
	}
	if d.Magnitude() != 25 {
		t.Errorf("Magnitude() = %v, want 25", d.Magnitude())
	}

	// Flipping back within the cooldown changes 25% again but must not
	// re-trigger until the cooldown elapses.
	*clock = clock.Add(100 * time.Millisecond)
	if d.Detect(base) {
		t.Error("Detect() = true within cooldown window")
	}

	*clock = clock.Add(2 * time.Second)
	if !d.Detect(changed) {
		t.Error("Detect() = false after cooldown elapsed")
	}
}

func TestDetect_MagnitudeBounds(t *testing.T) {
	d, clock := newTestDetector(t, Config{Threshold: 1, Sensitivity: 1})

	frames := []*frame.Frame{
		grayFrame(4, 4, 0),
		grayFrame(4, 4, 255),
		grayFrame(4, 4, 0),
		grayFrame(4, 4, 0),
		grayFrame(4, 4, 17),
	}
	for _, f := range frames {
		*clock = clock.Add(2 * time.Second)
		d.Detect(f)
	}

	for i, m := range d.History() {
		if m < 0 || m > 100 {
			t.Errorf("history[%d] = %v, want within [0, 100]", i, m)
		}
	}
}

func TestDetect_SkipsOnBadFrame(t *testing.T) {
	d, _ := newTestDetector(t, Config{})

	if d.Detect(nil) {
		t.Error("Detect(nil) = true, want false")
	}

	jpeg := &frame.Frame{Width: 4, Height: 4, Format: frame.FormatJPEG, Buffer: make([]byte, 16)}
	if d.Detect(jpeg) {
		t.Error("Detect() = true for JPEG frame, want skip")
	}
	if len(d.History()) != 0 {
		t.Error("skipped frames must not contribute history samples")
	}
}

func TestDetect_DisabledIsNoop(t *testing.T) {
	d, _ := newTestDetector(t, Config{})
	d.Enable(false)

	if d.Detect(grayFrame(4, 4, 0)) {
		t.Error("Detect() = true while disabled")
	}
	if len(d.History()) != 0 {
		t.Error("disabled detector must not record history")
	}
}

func TestDetect_ZoneGating(t *testing.T) {
	// 4x4 grid: each cell spans 25% of frame space.
	d, clock := newTestDetector(t, Config{
		Threshold:   30,
		Sensitivity: 5,
		Cooldown:    time.Second,
	})

	// Zone covering only the left half of the frame.
	if !d.AddZone(Zone{X: 0, Y: 0, Width: 50, Height: 100, Enabled: true}) {
		t.Fatal("AddZone() = false")
	}

	base := grayFrame(4, 4, 0)
	d.Detect(base)

	// Change only the rightmost column: outside the zone.
	right := grayFrame(4, 4, 0)
	for y := 0; y < 4; y++ {
		right.Buffer[y*4+3] = 200
	}
	*clock = clock.Add(2 * time.Second)
	if d.Detect(right) {
		t.Error("Detect() = true for motion outside the only enabled zone")
	}

	// Change the leftmost column: inside the zone.
	d.Detect(base)
	left := grayFrame(4, 4, 0)
	for y := 0; y < 4; y++ {
		left.Buffer[y*4] = 200
	}
	*clock = clock.Add(2 * time.Second)
	if !d.Detect(left) {
		t.Error("Detect() = false for motion inside the enabled zone")
	}
}

func TestDetect_DisabledZoneIgnored(t *testing.T) {
	d, clock := newTestDetector(t, Config{Threshold: 30, Sensitivity: 5, Cooldown: time.Second})
	d.AddZone(Zone{X: 0, Y: 0, Width: 100, Height: 100, Enabled: false})

	d.Detect(grayFrame(4, 4, 0))
	*clock = clock.Add(2 * time.Second)
	if d.Detect(grayFrame(4, 4, 200)) {
		t.Error("Detect() = true with only a disabled zone configured")
	}
}

func TestDetect_HistoryBounded(t *testing.T) {
	d, clock := newTestDetector(t, Config{Threshold: 1, Sensitivity: 1})

	fill := byte(0)
	for i := 0; i < HistorySize*2; i++ {
		fill ^= 0xFF
		*clock = clock.Add(2 * time.Second)
		d.Detect(grayFrame(4, 4, fill))
	}

	if got := len(d.History()); got != HistorySize {
		t.Errorf("len(History()) = %d, want %d", got, HistorySize)
	}

	d.ClearHistory()
	if len(d.History()) != 0 {
		t.Error("ClearHistory() left samples behind")
	}
}

func TestCellInZone_HalfOpen(t *testing.T) {
	d, _ := newTestDetector(t, Config{})

	// On the 4x4 grid each cell maps to multiples of 25%.
	z := Zone{X: 25, Y: 25, Width: 25, Height: 25, Enabled: true}

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"zone origin is inside", 1, 1, true},
		{"right edge is outside", 2, 1, false},
		{"bottom edge is outside", 1, 2, false},
		{"before origin is outside", 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.cellInZone(tt.x, tt.y, z); got != tt.want {
				t.Errorf("cellInZone(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

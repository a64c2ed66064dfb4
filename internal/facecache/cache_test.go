package facecache

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/visiona/sentinel-node/internal/frame"
)

// fakeDetector returns a scripted result and counts invocations.
type fakeDetector struct {
	result *Result
	err    error
	calls  int
}

func (d *fakeDetector) DetectFaces(_ *frame.Frame) (*Result, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

func oneFace() *Result {
	return &Result{
		Faces:        1,
		Confidences:  []float64{0.91},
		Boxes:        []Box{{X: 10, Y: 20, Width: 40, Height: 40}},
		HasLandmarks: true,
		Landmarks:    [][]Point{{{X: 15, Y: 25}, {X: 35, Y: 25}}},
	}
}

// grayFrame builds a small grayscale frame whose bytes are all fill,
// so distinct fills produce distinct cache keys.
func grayFrame(fill byte) *frame.Frame {
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = fill
	}
	return &frame.Frame{Width: 4, Height: 4, Format: frame.FormatGrayscale, Buffer: buf}
}

// recordLogger captures debug messages for assertions.
type recordLogger struct {
	msgs []string
}

func (l *recordLogger) Debug(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }
func (l *recordLogger) Info(msg string, _ ...any)  { l.msgs = append(l.msgs, msg) }
func (l *recordLogger) Warn(msg string, _ ...any)  { l.msgs = append(l.msgs, msg) }
func (l *recordLogger) Error(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }

func (l *recordLogger) has(msg string) bool {
	for _, m := range l.msgs {
		if m == msg {
			return true
		}
	}
	return false
}

// newTestCache returns a cache with a controllable clock.
func newTestCache(t *testing.T, det Detector, cfg Config) (*Cache, *time.Time) {
	t.Helper()
	c, err := New(det, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLogging_CacheEvents(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, now := newTestCache(t, det, Config{
		TTL:           time.Second,
		MaxSize:       2,
		SweepInterval: 5 * time.Second,
	})
	log := &recordLogger{}
	c.SetLogger(log)

	// Fill to capacity with distinct timestamps, then force an eviction
	// with a third frame.
	for fill := byte(0); fill < 3; fill++ {
		if _, err := c.DetectFaces(grayFrame(fill)); err != nil {
			t.Fatalf("DetectFaces() error = %v", err)
		}
		*now = now.Add(100 * time.Millisecond)
	}
	if !log.has("evicted oldest cache entry") {
		t.Error("eviction at capacity was not logged")
	}

	// A lookup against an expired entry drops it on the spot. Frame 1
	// survived the eviction (frame 0 was the oldest).
	*now = now.Add(1500 * time.Millisecond)
	if _, err := c.DetectFaces(grayFrame(1)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if !log.has("expired cache entry dropped") {
		t.Error("expired lookup drop was not logged")
	}

	// Past the sweep interval, the bulk sweep reports removals.
	*now = now.Add(5 * time.Second)
	if _, err := c.DetectFaces(grayFrame(9)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if !log.has("swept expired cache entries") {
		t.Error("bulk sweep was not logged")
	}
}

func TestNew_NoDetector(t *testing.T) {
	if _, err := New(nil, Config{}); err != ErrNoDetector {
		t.Errorf("New(nil) error = %v, want ErrNoDetector", err)
	}
}

func TestDetectFaces_RejectsInvalidFrames(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, _ := newTestCache(t, det, Config{})

	if _, err := c.DetectFaces(nil); !errors.Is(err, frame.ErrNilFrame) {
		t.Errorf("DetectFaces(nil) error = %v, want ErrNilFrame", err)
	}

	jpeg := &frame.Frame{Width: 4, Height: 4, Format: frame.FormatJPEG, Buffer: make([]byte, 16)}
	if _, err := c.DetectFaces(jpeg); !errors.Is(err, frame.ErrUnsupportedFormat) {
		t.Errorf("DetectFaces(jpeg) error = %v, want ErrUnsupportedFormat", err)
	}

	if det.calls != 0 {
		t.Errorf("detector invoked %d times for invalid frames, want 0", det.calls)
	}
}

func TestDetectFaces_IdenticalFramesHitCache(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, _ := newTestCache(t, det, Config{TTL: time.Second})

	first, err := c.DetectFaces(grayFrame(7))
	if err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if first.Faces != 1 {
		t.Fatalf("Faces = %d, want 1", first.Faces)
	}

	second, err := c.DetectFaces(grayFrame(7))
	if err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}

	if det.calls != 1 {
		t.Errorf("detector invoked %d times, want 1 (second lookup should hit)", det.calls)
	}
	if second.Faces != 1 {
		t.Errorf("cached Faces = %d, want 1", second.Faces)
	}
	if len(second.Confidences) != 1 || second.Confidences[0] != 0.91 {
		t.Errorf("cached Confidences = %v, want [0.91]", second.Confidences)
	}
	if !second.HasLandmarks || len(second.Landmarks) != 1 || len(second.Landmarks[0]) != 2 {
		t.Errorf("cached Landmarks = %v, want first face's two points", second.Landmarks)
	}
}

func TestDetectFaces_TTLExpiry(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, now := newTestCache(t, det, Config{TTL: time.Second})

	if _, err := c.DetectFaces(grayFrame(7)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}

	*now = now.Add(1500 * time.Millisecond)
	if _, err := c.DetectFaces(grayFrame(7)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}

	if det.calls != 2 {
		t.Errorf("detector invoked %d times, want 2 (expired entry is a miss)", det.calls)
	}
	// The expired entry was evicted on lookup, then the fresh result stored.
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestDetectFaces_ZeroFacesNotCached(t *testing.T) {
	det := &fakeDetector{result: &Result{Faces: 0}}
	c, _ := newTestCache(t, det, Config{})

	for i := 0; i < 3; i++ {
		if _, err := c.DetectFaces(grayFrame(7)); err != nil {
			t.Fatalf("DetectFaces() error = %v", err)
		}
	}

	if det.calls != 3 {
		t.Errorf("detector invoked %d times, want 3 (empty results never cached)", det.calls)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestDetectFaces_DetectorError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	det := &fakeDetector{err: wantErr}
	c, _ := newTestCache(t, det, Config{})

	if _, err := c.DetectFaces(grayFrame(7)); !errors.Is(err, wantErr) {
		t.Errorf("DetectFaces() error = %v, want %v", err, wantErr)
	}
	// The lookup still counted as a miss.
	if c.HitRate() != 0 {
		t.Errorf("HitRate() = %v, want 0", c.HitRate())
	}
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, now := newTestCache(t, det, Config{TTL: time.Hour, MaxSize: 2})

	// Three distinct frames at increasing timestamps.
	for i := byte(0); i < 3; i++ {
		if _, err := c.DetectFaces(grayFrame(i)); err != nil {
			t.Fatalf("DetectFaces() error = %v", err)
		}
		*now = now.Add(time.Second)
	}

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}

	// Frame 0 held the smallest timestamp and must be the evicted entry:
	// looking it up again invokes the detector, while frames 1 and 2 hit.
	before := det.calls
	if _, err := c.DetectFaces(grayFrame(1)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if _, err := c.DetectFaces(grayFrame(2)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if det.calls != before {
		t.Errorf("detector invoked for retained entries, want cache hits")
	}
	if _, err := c.DetectFaces(grayFrame(0)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if det.calls != before+1 {
		t.Errorf("detector calls = %d, want %d (oldest entry evicted)", det.calls, before+1)
	}
}

func TestSweep_GatedByInterval(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, now := newTestCache(t, det, Config{TTL: time.Second, SweepInterval: 10 * time.Second})

	// Populate two entries; the first detection call primes lastSweep.
	if _, err := c.DetectFaces(grayFrame(1)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if _, err := c.DetectFaces(grayFrame(2)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}

	// Both entries expire, but the next detection is inside the sweep
	// interval so they linger.
	*now = now.Add(5 * time.Second)
	if _, err := c.DetectFaces(grayFrame(3)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d before sweep interval, want 3", c.Size())
	}

	// Past the interval the sweep removes every expired entry.
	*now = now.Add(6 * time.Second)
	if _, err := c.DetectFaces(grayFrame(4)); err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d after sweep, want 1 (only the fresh entry)", c.Size())
	}
}

func TestHitRate(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, _ := newTestCache(t, det, Config{TTL: time.Hour})

	if got := c.HitRate(); got != 0 {
		t.Errorf("HitRate() with no lookups = %v, want 0", got)
	}

	// One miss followed by nine hits: 90%.
	for i := 0; i < 10; i++ {
		if _, err := c.DetectFaces(grayFrame(7)); err != nil {
			t.Fatalf("DetectFaces() error = %v", err)
		}
	}
	if got := c.HitRate(); got != 90 {
		t.Errorf("HitRate() = %v, want 90", got)
	}
}

func TestClear(t *testing.T) {
	det := &fakeDetector{result: oneFace()}
	c, _ := newTestCache(t, det, Config{TTL: time.Hour})

	for i := byte(0); i < 3; i++ {
		if _, err := c.DetectFaces(grayFrame(i)); err != nil {
			t.Fatalf("DetectFaces() error = %v", err)
		}
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", c.Size())
	}
	if c.HitRate() != 0 {
		t.Errorf("HitRate() = %v after Clear, want 0", c.HitRate())
	}
}

func TestCacheKey_Distinguishes(t *testing.T) {
	a := cacheKey([]byte{1, 2, 3})
	b := cacheKey([]byte{1, 2, 4})
	if a == b {
		t.Error("distinct buffers produced identical keys")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32 hex chars", len(a))
	}
}

func ExampleCache_HitRate() {
	det := &fakeDetector{result: oneFace()}
	c, _ := New(det, Config{TTL: time.Hour})

	f := grayFrame(7)
	c.DetectFaces(f)
	c.DetectFaces(f)

	fmt.Printf("%.0f%%\n", c.HitRate())
	// Output: 50%
}

package facecache

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/visiona/sentinel-node/internal/frame"
)

// Cache sizing and expiry defaults.
const (
	// DefaultTTL is the maximum age of a cached detection result.
	DefaultTTL = time.Second

	// DefaultMaxSize is the entry capacity before oldest-entry eviction.
	DefaultMaxSize = 16

	// DefaultSweepInterval gates the periodic removal of expired entries.
	DefaultSweepInterval = 10 * time.Second
)

// Point is a single landmark coordinate in frame space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is a face bounding box in frame space.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result holds the outcome of one detection pass.
type Result struct {
	Faces        int
	Confidences  []float64
	Boxes        []Box
	HasLandmarks bool
	Landmarks    [][]Point
}

// Detector is the external face-detection primitive wrapped by the cache.
// Implementations receive validated raw frames and are never invoked with
// compressed formats.
type Detector interface {
	DetectFaces(f *frame.Frame) (*Result, error)
}

// Config holds cache tuning parameters.
type Config struct {
	TTL           time.Duration
	MaxSize       int
	SweepInterval time.Duration
}

// entry is one cached detection keyed by frame content hash. Only the
// first face's confidence and landmarks are retained; a later hit
// resynthesises a single-face result from them.
type entry struct {
	timestamp    time.Time
	confidence   float64
	hasLandmarks bool
	landmarks    []Point
}

// Cache deduplicates face-detection calls by hashing raw frame bytes.
//
// Entries expire after a TTL and the cache is capacity-bounded: insertion
// at capacity evicts the entry with the oldest timestamp, found by linear
// scan. The cache is small enough that the scan beats any ordering
// structure. A periodic sweep removes expired entries in bulk.
//
// Cache methods run on the control loop only and perform no locking.
type Cache struct {
	detector Detector
	logger   Logger

	ttl           time.Duration
	maxSize       int
	sweepInterval time.Duration

	entries   map[string]*entry
	hits      uint64
	misses    uint64
	lastSweep time.Time

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a cache wrapping the given detection primitive.
func New(detector Detector, cfg Config) (*Cache, error) {
	if detector == nil {
		return nil, ErrNoDetector
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSize < 1 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	return &Cache{
		detector:      detector,
		logger:        noopLogger{},
		ttl:           cfg.TTL,
		maxSize:       cfg.MaxSize,
		sweepInterval: cfg.SweepInterval,
		entries:       make(map[string]*entry),
		now:           time.Now,
	}, nil
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// DetectFaces returns face-detection results for the frame, consulting the
// cache before invoking the detection primitive.
//
// A lookup against an expired entry counts as a miss and evicts the entry
// immediately. Results are cached only when at least one face was found,
// so empty frames are re-examined every call.
//
// Parameters:
//   - f: Raw frame to examine
//
// Returns:
//   - *Result: Detection outcome (synthesised from cache on a hit)
//   - error: Frame validation or detector failure
func (c *Cache) DetectFaces(f *frame.Frame) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	now := c.now()
	key := cacheKey(f.Buffer)

	if res, ok := c.lookup(key, now); ok {
		c.hits++
		return res, nil
	}
	c.misses++

	res, err := c.detector.DetectFaces(f)
	if err != nil {
		return nil, err
	}

	if res.Faces > 0 {
		c.store(key, res, now)
	}
	c.maybeSweep(now)

	return res, nil
}

// cacheKey hashes raw frame bytes into a hex digest. MD5 is deliberate:
// the key only deduplicates identical captures, it carries no security
// weight, and the digest is cheap on every frame.
func cacheKey(buf []byte) string {
	sum := md5.Sum(buf)
	return hex.EncodeToString(sum[:])
}

// lookup returns a synthesised result for an unexpired entry. Expired
// entries are evicted on the spot and reported as misses.
func (c *Cache) lookup(key string, now time.Time) (*Result, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.timestamp) > c.ttl {
		delete(c.entries, key)
		c.logger.Debug("expired cache entry dropped", "key", key)
		return nil, false
	}

	res := &Result{
		Faces:        1,
		Confidences:  []float64{e.confidence},
		HasLandmarks: e.hasLandmarks,
	}
	if e.hasLandmarks {
		pts := make([]Point, len(e.landmarks))
		copy(pts, e.landmarks)
		res.Landmarks = [][]Point{pts}
	}
	return res, true
}

// store inserts a new entry, evicting oldest entries while at capacity.
func (c *Cache) store(key string, res *Result, now time.Time) {
	for len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{
		timestamp:    now,
		hasLandmarks: res.HasLandmarks,
	}
	if len(res.Confidences) > 0 {
		e.confidence = res.Confidences[0]
	}
	if res.HasLandmarks && len(res.Landmarks) > 0 {
		e.landmarks = make([]Point, len(res.Landmarks[0]))
		copy(e.landmarks, res.Landmarks[0])
	}
	c.entries[key] = e
}

// evictOldest removes the entry with the smallest timestamp via linear scan.
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		first     = true
	)
	for key, e := range c.entries {
		if first || e.timestamp.Before(oldest) {
			oldestKey = key
			oldest = e.timestamp
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.logger.Debug("evicted oldest cache entry", "key", oldestKey)
	}
}

// maybeSweep removes all expired entries, gated by the sweep interval so
// the full scan does not run on every detection.
func (c *Cache) maybeSweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.sweepInterval {
		return
	}
	c.lastSweep = now

	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.timestamp) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("swept expired cache entries",
			"removed", removed, "remaining", len(c.entries))
	}
}

// Clear discards all entries and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.entries = make(map[string]*entry)
	c.hits = 0
	c.misses = 0
	c.lastSweep = time.Time{}
}

// HitRate returns the cache hit percentage, zero before any lookup.
func (c *Cache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) * 100 / float64(total)
}

// Size returns the number of live entries, expired or not.
func (c *Cache) Size() int { return len(c.entries) }

// SetTTL updates the entry time-to-live.
func (c *Cache) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttl = ttl
	}
}

// SetMaxSize updates the capacity bound. Shrinking takes effect on the
// next insertion; existing entries are not evicted eagerly.
func (c *Cache) SetMaxSize(n int) {
	if n > 0 {
		c.maxSize = n
	}
}

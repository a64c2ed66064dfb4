package facecache

import "errors"

var (
	// ErrNoDetector indicates the cache was constructed without a detection
	// primitive.
	ErrNoDetector = errors.New("facecache: no detector configured")
)

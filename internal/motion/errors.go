package motion

import "errors"

// Domain-specific errors for motion detection.
var (
	// ErrBadGrid is returned by New for non-positive grid dimensions.
	// Construction failure is fatal: the detector must not be used.
	ErrBadGrid = errors.New("motion: grid dimensions must be positive")
)

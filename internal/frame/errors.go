package frame

import "errors"

// Domain-specific errors for frame handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNilFrame is returned when a nil frame or nil buffer is supplied.
	ErrNilFrame = errors.New("frame: nil frame or buffer")

	// ErrUnsupportedFormat is returned for formats that cannot be converted
	// to luma (notably JPEG, which is never decoded on the node).
	ErrUnsupportedFormat = errors.New("frame: unsupported pixel format")

	// ErrBadDimensions is returned for non-positive width or height.
	ErrBadDimensions = errors.New("frame: invalid dimensions")

	// ErrShortBuffer is returned when the buffer is smaller than the
	// dimensions and format require.
	ErrShortBuffer = errors.New("frame: buffer too small for dimensions")
)

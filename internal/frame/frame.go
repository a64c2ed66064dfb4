package frame

import "fmt"

// PixelFormat identifies the raw encoding of a frame buffer.
type PixelFormat int

// Supported pixel formats. JPEG is recognised so callers can report it
// distinctly, but no package in this module decodes it.
const (
	FormatGrayscale PixelFormat = iota
	FormatRGB565
	FormatRGB888
	FormatJPEG
)

// String returns the format name as used in telemetry and logs.
func (f PixelFormat) String() string {
	switch f {
	case FormatGrayscale:
		return "grayscale"
	case FormatRGB565:
		return "rgb565"
	case FormatRGB888:
		return "rgb888"
	case FormatJPEG:
		return "jpeg"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// BytesPerPixel returns the buffer stride for the format, or 0 for
// compressed formats whose buffer length is not derivable from dimensions.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatGrayscale:
		return 1
	case FormatRGB565:
		return 2
	case FormatRGB888:
		return 3
	default:
		return 0
	}
}

// Frame is a captured camera frame handed to the sensing subsystems.
//
// The buffer is owned by the producer; consumers must not retain it past
// the call they received it in.
type Frame struct {
	Width  int
	Height int
	Format PixelFormat
	Buffer []byte
}

// Validate checks that the frame descriptor is internally consistent.
//
// Returns:
//   - error: ErrNilFrame, ErrUnsupportedFormat or ErrShortBuffer, nil if valid
func (f *Frame) Validate() error {
	if f == nil || f.Buffer == nil {
		return ErrNilFrame
	}
	if f.Width < 1 || f.Height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, f.Width, f.Height)
	}

	bpp := f.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	if len(f.Buffer) < f.Width*f.Height*bpp {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(f.Buffer), f.Width*f.Height*bpp)
	}

	return nil
}

package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		wantErr error
	}{
		{
			name:    "nil buffer",
			frame:   &Frame{Width: 4, Height: 4, Format: FormatGrayscale},
			wantErr: ErrNilFrame,
		},
		{
			name:    "valid grayscale",
			frame:   &Frame{Width: 2, Height: 2, Format: FormatGrayscale, Buffer: make([]byte, 4)},
			wantErr: nil,
		},
		{
			name:    "jpeg rejected",
			frame:   &Frame{Width: 2, Height: 2, Format: FormatJPEG, Buffer: make([]byte, 100)},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "short buffer",
			frame:   &Frame{Width: 4, Height: 4, Format: FormatRGB888, Buffer: make([]byte, 10)},
			wantErr: ErrShortBuffer,
		},
		{
			name:    "zero dimensions",
			frame:   &Frame{Width: 0, Height: 4, Format: FormatGrayscale, Buffer: make([]byte, 4)},
			wantErr: ErrBadDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestToLuma_Grayscale(t *testing.T) {
	f := &Frame{
		Width:  2,
		Height: 2,
		Format: FormatGrayscale,
		Buffer: []byte{10, 20, 30, 40},
	}

	out, err := ToLuma(f)
	if err != nil {
		t.Fatalf("ToLuma() error = %v", err)
	}
	if !bytes.Equal(out, f.Buffer) {
		t.Errorf("ToLuma() = %v, want passthrough %v", out, f.Buffer)
	}
}

func TestToLuma_RGB888(t *testing.T) {
	// Pure white: (255*77 + 255*150 + 255*29) >> 8 = 255
	// Pure black: 0
	f := &Frame{
		Width:  2,
		Height: 1,
		Format: FormatRGB888,
		Buffer: []byte{255, 255, 255, 0, 0, 0},
	}

	out, err := ToLuma(f)
	if err != nil {
		t.Fatalf("ToLuma() error = %v", err)
	}
	if out[0] != 255 {
		t.Errorf("white pixel luma = %d, want 255", out[0])
	}
	if out[1] != 0 {
		t.Errorf("black pixel luma = %d, want 0", out[1])
	}
}

func TestToLuma_RGB565(t *testing.T) {
	// All channel bits set: r=31, g=63, b=31
	// (31*77 + 63*150 + 31*29) >> 8 = 49
	f := &Frame{
		Width:  1,
		Height: 1,
		Format: FormatRGB565,
		Buffer: []byte{0xFF, 0xFF},
	}

	out, err := ToLuma(f)
	if err != nil {
		t.Fatalf("ToLuma() error = %v", err)
	}
	want := byte((31*77 + 63*150 + 31*29) >> 8)
	if out[0] != want {
		t.Errorf("luma = %d, want %d", out[0], want)
	}
}

func TestToLuma_JPEGRejected(t *testing.T) {
	f := &Frame{Width: 8, Height: 8, Format: FormatJPEG, Buffer: make([]byte, 64)}

	_, err := ToLuma(f)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ToLuma() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDownscale(t *testing.T) {
	// 4x4 source downscaled to 2x2 picks the top-left pixel of each block.
	src := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	dst := make([]byte, 4)

	Downscale(src, 4, 4, dst, 2, 2)

	want := []byte{1, 3, 9, 11}
	if !bytes.Equal(dst, want) {
		t.Errorf("Downscale() = %v, want %v", dst, want)
	}
}

func TestDownscale_Identity(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	dst := make([]byte, 4)

	Downscale(src, 2, 2, dst, 2, 2)

	if !bytes.Equal(dst, src) {
		t.Errorf("Downscale() identity = %v, want %v", dst, src)
	}
}

func TestPixelFormat_String(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   string
	}{
		{FormatGrayscale, "grayscale"},
		{FormatRGB565, "rgb565"},
		{FormatRGB888, "rgb888"},
		{FormatJPEG, "jpeg"},
		{PixelFormat(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("PixelFormat(%d).String() = %q, want %q", int(tt.format), got, tt.want)
		}
	}
}

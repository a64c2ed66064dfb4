package frame

// Integer luma weights approximating 0.30R + 0.59G + 0.11B, applied as
// (r*77 + g*150 + b*29) >> 8. For RGB565 the weights are applied to the
// raw 5/6/5 channel values.
const (
	lumaWeightR = 77
	lumaWeightG = 150
	lumaWeightB = 29
)

// ToLuma converts a frame to a full-resolution single-channel luma buffer.
//
// Grayscale frames are copied as-is. RGB565 and RGB888 are converted with
// integer-weighted luma. JPEG and unknown formats are rejected; the caller
// should skip the frame rather than retry.
//
// Returns:
//   - []byte: Width*Height luma bytes
//   - error: validation or format error, nil on success
func ToLuma(f *Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	pixels := f.Width * f.Height
	out := make([]byte, pixels)

	switch f.Format {
	case FormatGrayscale:
		copy(out, f.Buffer[:pixels])

	case FormatRGB565:
		for i := 0; i < pixels; i++ {
			// Little-endian 16-bit pixel: rrrrrggg gggbbbbb
			px := uint16(f.Buffer[2*i]) | uint16(f.Buffer[2*i+1])<<8
			r := (px >> 11) & 0x1F
			g := (px >> 5) & 0x3F
			b := px & 0x1F
			out[i] = byte((uint32(r)*lumaWeightR + uint32(g)*lumaWeightG + uint32(b)*lumaWeightB) >> 8)
		}

	case FormatRGB888:
		for i := 0; i < pixels; i++ {
			j := 3 * i
			r := uint32(f.Buffer[j])
			g := uint32(f.Buffer[j+1])
			b := uint32(f.Buffer[j+2])
			out[i] = byte((r*lumaWeightR + g*lumaWeightG + b*lumaWeightB) >> 8)
		}

	default:
		return nil, ErrUnsupportedFormat
	}

	return out, nil
}

// Downscale resamples a luma buffer into dst using nearest-neighbour
// sampling. dst must be dstW*dstH bytes.
func Downscale(src []byte, srcW, srcH int, dst []byte, dstW, dstH int) {
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)

	for y := 0; y < dstH; y++ {
		sy := int(float64(y) * yRatio)
		for x := 0; x < dstW; x++ {
			sx := int(float64(x) * xRatio)
			dst[y*dstW+x] = src[sy*srcW+sx]
		}
	}
}

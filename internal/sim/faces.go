package sim

import (
	"github.com/visiona/sentinel-node/internal/facecache"
	"github.com/visiona/sentinel-node/internal/frame"
)

// FaceScanner is a stand-in face detector that reports a single face
// whenever the frame's mean luma exceeds a threshold. It pairs with
// FrameGenerator: the bright block pushes the mean high enough on jump
// frames.
type FaceScanner struct {
	// MeanLumaThreshold is the mean luma (0-255) above which a face is
	// reported. Zero selects the default.
	MeanLumaThreshold int
}

const defaultMeanLumaThreshold = 24

func (s *FaceScanner) DetectFaces(f *frame.Frame) (*facecache.Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	threshold := s.MeanLumaThreshold
	if threshold <= 0 {
		threshold = defaultMeanLumaThreshold
	}

	luma, err := frame.ToLuma(f)
	if err != nil {
		return nil, err
	}
	var sum int
	for _, v := range luma {
		sum += int(v)
	}
	if len(luma) == 0 || sum/len(luma) < threshold {
		return &facecache.Result{}, nil
	}

	w, h := f.Width/2, f.Height/2
	return &facecache.Result{
		Faces:        1,
		Confidences:  []float64{0.82},
		Boxes:        []facecache.Box{{X: f.Width / 4, Y: f.Height / 4, Width: w, Height: h}},
		HasLandmarks: true,
		Landmarks: [][]facecache.Point{{
			{X: f.Width/2 - w/8, Y: f.Height/2 - h/8},
			{X: f.Width/2 + w/8, Y: f.Height/2 - h/8},
			{X: f.Width / 2, Y: f.Height / 2},
		}},
	}, nil
}

package sim

import (
	"context"

	"github.com/visiona/sentinel-node/internal/frame"
)

// FrameGenerator produces grayscale frames with a bright block that
// jumps position every few frames, enough to trip grid-based motion
// detection periodically.
//
// FrameGenerator is not safe for concurrent use; it is designed to be
// owned by the control loop like a real capture driver.
type FrameGenerator struct {
	width   int
	height  int
	period  int
	counter int
	buf     []byte
}

// NewFrameGenerator builds a generator producing width x height frames.
// Every period-th frame moves the bright block; intermediate frames are
// identical so motion settles between jumps.
func NewFrameGenerator(width, height, period int) *FrameGenerator {
	if period < 1 {
		period = 1
	}
	return &FrameGenerator{
		width:  width,
		height: height,
		period: period,
		buf:    make([]byte, width*height),
	}
}

// Capture returns the next synthetic frame. The returned buffer is
// reused between calls, matching real capture driver behaviour.
func (g *FrameGenerator) Capture(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if g.counter%g.period == 0 {
		g.redraw()
	}
	g.counter++

	return &frame.Frame{
		Width:  g.width,
		Height: g.height,
		Format: frame.FormatGrayscale,
		Buffer: g.buf,
	}, nil
}

// redraw paints a dark background with one bright quarter-size block
// whose position depends on the current jump count.
func (g *FrameGenerator) redraw() {
	for i := range g.buf {
		g.buf[i] = 16
	}

	bw, bh := g.width/4, g.height/4
	jump := g.counter / g.period
	bx := (jump * bw) % (g.width - bw + 1)
	by := (jump * bh) % (g.height - bh + 1)

	for y := by; y < by+bh; y++ {
		row := y * g.width
		for x := bx; x < bx+bw; x++ {
			g.buf[row+x] = 230
		}
	}
}

package node

import (
	"context"

	"github.com/visiona/sentinel-node/internal/frame"
)

// FrameSource supplies camera frames to the control loop. The capture
// layer (camera driver, test generator) lives behind this interface.
//
// Capture may block briefly while a frame is produced; the returned
// frame's buffer is only valid until the next Capture call.
type FrameSource interface {
	Capture(ctx context.Context) (*frame.Frame, error)
}

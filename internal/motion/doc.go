// Package motion provides grid-based motion detection for the Sentinel node.
//
// This package manages:
//   - Reduction of camera frames into a fixed detection grid using the
//     frame package's luma conversion and downscaling (two grid buffers,
//     swapped per frame)
//   - Per-cell absolute differencing against a configurable threshold
//   - Motion magnitude as the percentage of changed cells
//   - Detection zones in percentage frame space with union semantics
//   - A cooldown interval between reported detections
//   - A bounded history of magnitude samples
//
// # Concurrency
//
// The detector runs exclusively on the control loop; it holds no locks and
// is not safe for concurrent use.
//
// # Failure Semantics
//
// Construction failure (invalid grid) is fatal for the subsystem. At
// steady state a nil frame or an unsupported pixel format skips the cycle
// and returns false; nothing is corrupted and the next frame proceeds
// normally.
package motion

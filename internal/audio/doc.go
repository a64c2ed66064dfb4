// Package audio provides streaming audio capture and voice-activity
// detection for the Sentinel node.
//
// This package manages:
//   - A dedicated capture worker performing blocking reads from the source
//   - RMS level computation over signed 16-bit PCM samples
//   - Noise-floor calibration and optional noise subtraction
//   - Voice-activity detection with a minimum-duration debounce
//   - A bounded queue of raw capture buffers for downstream consumers
//
// # Concurrency
//
// The capture read blocks until the hardware buffer fills, so capture runs
// on its own goroutine rather than the control loop. The worker publishes
// its state through a mutex-guarded snapshot; the control loop reads copies
// via Snapshot and never shares mutable fields with the worker. The buffer
// queue is a single-producer/single-consumer channel; when it is full the
// newest capture is dropped to preserve real-time behaviour.
//
// # Failure Semantics
//
// A missing source at Begin is fatal for the subsystem. At steady state a
// failed read is logged and the cycle skipped; a full queue drops the
// buffer without retry.
package audio

package audio

import "errors"

// Domain-specific errors for audio capture.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoSource is returned by Begin when no audio source was provided.
	ErrNoSource = errors.New("audio: no capture source")

	// ErrNotInitialized is returned by Start before a successful Begin.
	ErrNotInitialized = errors.New("audio: processor not initialized")

	// ErrAlreadyRunning is returned by Start when the worker is active.
	ErrAlreadyRunning = errors.New("audio: worker already running")

	// ErrNotRunning is returned by Stop and CalibrateNoiseFloor when the
	// worker is not active.
	ErrNotRunning = errors.New("audio: worker not running")
)

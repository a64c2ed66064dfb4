package node

import "errors"

var (
	// ErrNoFrameSource is returned when motion or face detection is
	// enabled but no frame source was supplied.
	ErrNoFrameSource = errors.New("node: no frame source configured")

	// ErrInvalidPush is returned when a configuration push fails
	// schema validation.
	ErrInvalidPush = errors.New("node: invalid configuration push")

	// ErrUnsupportedVersion is returned when a configuration push
	// declares a schema version this build does not understand.
	ErrUnsupportedVersion = errors.New("node: unsupported configuration version")
)

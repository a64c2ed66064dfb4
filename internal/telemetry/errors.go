package telemetry

import "errors"

var (
	// ErrNotConnected indicates an outbound send was attempted without an
	// established transport. Sends fail fast; nothing is queued.
	ErrNotConnected = errors.New("telemetry: not connected")

	// ErrNoDialer indicates the channel was constructed without a dialer.
	ErrNoDialer = errors.New("telemetry: no dialer configured")

	// ErrNoToken is returned by Connect when no access token is
	// configured to present to the controller.
	ErrNoToken = errors.New("telemetry: no access token configured")
)

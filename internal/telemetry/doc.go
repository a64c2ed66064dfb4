// Package telemetry implements the bidirectional channel between the node
// and its controller.
//
// The wire protocol is JSON over a persistent websocket. A session walks a
// three-state machine — Disconnected, Connected, Authenticated — driven by
// the controller's auth_required / auth_ok / auth_invalid exchange.
// Sensor results flow out as typed telemetry messages; configuration
// pushes flow back in as subscribed events.
//
// # Protocol Behaviour
//
//   - Outbound message ids are monotonic from 1 and never reused within a
//     channel's lifetime.
//   - Subscriptions persist across disconnects and are re-registered after
//     every successful authentication. subscribe_events is never sent
//     before the session is Authenticated.
//   - Reconnection runs on a fixed interval, capped at a configurable
//     attempt count; the counter resets only when a transport connect
//     succeeds. Cap exhaustion fires an observable callback.
//   - auth_invalid freezes the channel: no automatic retry with rejected
//     credentials. SetToken or an explicit Connect resumes.
//   - Unrecognised inbound message types classify as "result" and are
//     ignored, never treated as protocol errors. This fallback is part of
//     the controller compatibility contract.
//
// The channel's state machine runs entirely on the control loop; the only
// internal goroutine is a read pump that queues frames for Poll.
package telemetry

// Package node assembles the sensor pipeline and drives it from a
// single control loop.
//
// # Control Loop
//
// Run owns one goroutine that multiplexes four duties: polling the
// telemetry channel, draining the audio queue and publishing voice
// transitions, capturing frames for motion and face detection, and
// applying queued configuration pushes. Subsystems that are not
// independently thread-safe (motion detector, face cache, telemetry
// channel) are touched only from this loop.
//
// # Configuration Pushes
//
// The controller can retune the node at runtime by sending a versioned
// JSON document over the telemetry channel ("config" events) or the
// MQTT config topic. Pushes are schema-validated before any field is
// applied and rejected wholesale on failure. A connection section
// triggers a full disconnect and reconnect against the new endpoint.
package node

// Package mqtt provides the node's MQTT telemetry mirror.
//
// This package manages:
//   - Connection to the site broker with auto-reconnect
//   - Publishing sensor events alongside the websocket channel
//   - Topic subscriptions (configuration pushes) with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Topic Scheme
//
// All traffic lives under sentinel/{node_id}/:
//
//	sentinel/cam-hallway/motion   — motion events (unretained)
//	sentinel/cam-hallway/voice    — voice-activity events (unretained)
//	sentinel/cam-hallway/faces    — face-detection results (unretained)
//	sentinel/cam-hallway/status   — online/offline, retained, LWT
//	sentinel/cam-hallway/config   — inbound configuration pushes
//
// The mirror is optional: when the broker is unreachable or MQTT is
// disabled in config, the websocket channel remains the sole transport
// and the node runs unaffected.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
package mqtt

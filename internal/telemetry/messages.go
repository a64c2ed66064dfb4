package telemetry

import "encoding/json"

// MessageType classifies inbound protocol messages. The set is closed:
// unrecognised type strings map to TypeResult rather than an error, and
// that fallback is contractual — the controller relies on unknown types
// being classified, not rejected.
type MessageType int

const (
	TypeResult MessageType = iota
	TypeAuthRequired
	TypeAuth
	TypeAuthOK
	TypeAuthInvalid
	TypeEvent
	TypeSubscribeEvents
	TypePing
	TypePong
)

// ParseType maps a wire type string to its MessageType, defaulting to
// TypeResult for anything unrecognised.
func ParseType(s string) MessageType {
	switch s {
	case "auth_required":
		return TypeAuthRequired
	case "auth":
		return TypeAuth
	case "auth_ok":
		return TypeAuthOK
	case "auth_invalid":
		return TypeAuthInvalid
	case "event":
		return TypeEvent
	case "subscribe_events":
		return TypeSubscribeEvents
	case "ping":
		return TypePing
	case "pong":
		return TypePong
	case "result":
		return TypeResult
	default:
		return TypeResult
	}
}

// String returns the wire name of the message type.
func (t MessageType) String() string {
	switch t {
	case TypeAuthRequired:
		return "auth_required"
	case TypeAuth:
		return "auth"
	case TypeAuthOK:
		return "auth_ok"
	case TypeAuthInvalid:
		return "auth_invalid"
	case TypeEvent:
		return "event"
	case TypeSubscribeEvents:
		return "subscribe_events"
	case TypePing:
		return "ping"
	case TypePong:
		return "pong"
	default:
		return "result"
	}
}

// inboundMessage is the envelope decoded from every received frame.
// Unknown fields are ignored; only the routing fields matter here.
type inboundMessage struct {
	Type  string        `json:"type"`
	ID    uint64        `json:"id,omitempty"`
	Event *eventPayload `json:"event,omitempty"`
}

// eventPayload carries a server-pushed event. Data is left raw for the
// subscriber to decode.
type eventPayload struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// authMessage is the outbound credential exchange.
type authMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// subscribeMessage registers interest in server events. An absent
// event_type subscribes to everything.
type subscribeMessage struct {
	Type      string `json:"type"`
	ID        uint64 `json:"id"`
	EventType string `json:"event_type,omitempty"`
}

// pongMessage answers a controller-initiated ping, echoing its id.
type pongMessage struct {
	Type string `json:"type"`
	ID   uint64 `json:"id"`
}

// statusMessage reports node status to the controller.
type statusMessage struct {
	Type    string `json:"type"`
	ID      uint64 `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// errorMessage reports a node-side failure to the controller.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// BoundingBox locates one detected face in frame space.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LandmarkPoint is one facial landmark coordinate.
type LandmarkPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FaceDetectionMessage is the face telemetry payload. Landmarks is
// omitted entirely when landmark detection is disabled.
type FaceDetectionMessage struct {
	Type        string            `json:"type"`
	Faces       int               `json:"faces"`
	Confidences []float64         `json:"confidences"`
	Boxes       []BoundingBox     `json:"boxes"`
	Landmarks   [][]LandmarkPoint `json:"landmarks,omitempty"`
}

// MotionMessage is the motion telemetry payload.
type MotionMessage struct {
	Type      string `json:"type"`
	Detected  bool   `json:"detected"`
	Magnitude int    `json:"magnitude"`
	Timestamp int64  `json:"timestamp"`
}

// VoiceMessage is the voice-activity telemetry payload.
type VoiceMessage struct {
	Type       string  `json:"type"`
	Detected   bool    `json:"detected"`
	Level      float64 `json:"level"`
	DurationMs int64   `json:"duration_ms"`
	Timestamp  int64   `json:"timestamp"`
}

package mqtt

import "fmt"

// TopicPrefix is the root of all node topics.
// Scheme: sentinel/{node_id}/{channel}
const TopicPrefix = "sentinel"

// Topics provides builders for the node's MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase
// and with the controller's subscriptions.
//
//	topics := mqtt.Topics{}
//	motionTopic := topics.Motion("cam-hallway")
//	// Returns: "sentinel/cam-hallway/motion"
type Topics struct{}

// Motion returns the topic for motion detection events from a node.
//
// Example: sentinel/cam-hallway/motion
func (Topics) Motion(nodeID string) string {
	return fmt.Sprintf("%s/%s/motion", TopicPrefix, nodeID)
}

// Voice returns the topic for voice-activity events from a node.
//
// Example: sentinel/cam-hallway/voice
func (Topics) Voice(nodeID string) string {
	return fmt.Sprintf("%s/%s/voice", TopicPrefix, nodeID)
}

// Faces returns the topic for face-detection results from a node.
//
// Example: sentinel/cam-hallway/faces
func (Topics) Faces(nodeID string) string {
	return fmt.Sprintf("%s/%s/faces", TopicPrefix, nodeID)
}

// Status returns the topic carrying a node's online/offline status.
// Published retained, and used as the LWT topic.
//
// Example: sentinel/cam-hallway/status
func (Topics) Status(nodeID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, nodeID)
}

// Config returns the topic on which a node receives configuration pushes.
//
// Example: sentinel/cam-hallway/config
func (Topics) Config(nodeID string) string {
	return fmt.Sprintf("%s/%s/config", TopicPrefix, nodeID)
}

// NodeAll returns a pattern matching every topic of one node.
//
// Pattern: sentinel/{node_id}/#
func (Topics) NodeAll(nodeID string) string {
	return fmt.Sprintf("%s/%s/#", TopicPrefix, nodeID)
}

// AllStatus returns a pattern matching every node's status topic.
//
// Pattern: sentinel/+/status
func (Topics) AllStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefix)
}

// AllMotion returns a pattern matching every node's motion topic.
//
// Pattern: sentinel/+/motion
func (Topics) AllMotion() string {
	return fmt.Sprintf("%s/+/motion", TopicPrefix)
}

// AllTopics returns a pattern matching all node topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: sentinel/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

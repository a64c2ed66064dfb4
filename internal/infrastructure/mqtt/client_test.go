package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// These tests exercise validation and state handling that do not require a
// live broker. Round-trip publish/subscribe behaviour is covered by the
// integration suite against a local Mosquitto.

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() = true for unconnected client, want false")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	client := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			qos:     1,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "sentinel/test/motion",
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   "sentinel/test/motion",
			payload: make([]byte, maxPayloadSize+1),
			qos:     1,
			wantErr: ErrPublishFailed,
		},
		{
			name:    "disconnected",
			topic:   "sentinel/test/motion",
			payload: []byte(`{}`),
			qos:     1,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("sentinel/test/config", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("sentinel/test/config", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("sentinel/test/config", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() while disconnected error = %v, want ErrNotConnected", err)
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", client.SubscriptionCount())
	}
}

func TestUnsubscribe_Validation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("sentinel/test/config"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() while disconnected error = %v, want ErrNotConnected", err)
	}
}

func TestHasSubscription_NotSubscribed(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	if client.HasSubscription("sentinel/test/config") {
		t.Error("HasSubscription() = true for untracked topic, want false")
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Motion", topics.Motion("cam-hallway"), "sentinel/cam-hallway/motion"},
		{"Voice", topics.Voice("cam-hallway"), "sentinel/cam-hallway/voice"},
		{"Faces", topics.Faces("cam-hallway"), "sentinel/cam-hallway/faces"},
		{"Status", topics.Status("cam-hallway"), "sentinel/cam-hallway/status"},
		{"Config", topics.Config("cam-hallway"), "sentinel/cam-hallway/config"},
		{"NodeAll", topics.NodeAll("cam-hallway"), "sentinel/cam-hallway/#"},
		{"AllStatus", topics.AllStatus(), "sentinel/+/status"},
		{"AllMotion", topics.AllMotion(), "sentinel/+/motion"},
		{"AllTopics", topics.AllTopics(), "sentinel/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("cam-hallway")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"node_id":"cam-hallway"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("cam-hallway")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}

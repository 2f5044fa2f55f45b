package websocket

import (
	"encoding/json"

	"github.com/isdelr/simplecomm-be/internal/realtime"
)

// Client-to-server actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Server-to-client actions.
const (
	ActionSnapshot          = "snapshot"
	ActionStreamUnavailable = "stream_unavailable"
	ActionError             = "error"
	ActionCommunityCreated  = "community_created"
	ActionDashboardStats    = "dashboard_stats"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SnapshotPayload carries the full current result set of a topic.
type SnapshotPayload struct {
	realtime.Topic
	Items any `json:"items"`
}

// UnavailablePayload reports a stream that stopped after exhausting retries.
type UnavailablePayload struct {
	realtime.Topic
	Error string `json:"error"`
}

// Encode marshals an outbound message.
func Encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Action: action, Payload: raw})
}

// NewErrorMessage builds an error message for a single client.
func NewErrorMessage(text string) []byte {
	msg, _ := Encode(ActionError, text)
	return msg
}

// NewSnapshotMessage builds a snapshot message for topic.
func NewSnapshotMessage(topic realtime.Topic, items any) ([]byte, error) {
	return Encode(ActionSnapshot, SnapshotPayload{Topic: topic, Items: items})
}

// NewUnavailableMessage builds the terminal notice for a failed stream.
func NewUnavailableMessage(topic realtime.Topic, err error) []byte {
	msg, _ := Encode(ActionStreamUnavailable, UnavailablePayload{Topic: topic, Error: err.Error()})
	return msg
}

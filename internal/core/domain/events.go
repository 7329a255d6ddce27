package domain

import "encoding/json"

// Event types pushed on the private user channel. The set is open: the
// server may introduce new types, and envelopes with no registered
// listener are dropped without error.
const (
	EventNewMessage = "new_message"
	EventNewThread  = "new_thread"
)

// EventEnvelope is a tagged payload delivered over a channel.
type EventEnvelope struct {
	EventType string          `json:"event"`
	Payload   json.RawMessage `json:"data"`
}

// EventHandler receives every envelope whose event type it subscribed to.
type EventHandler func(EventEnvelope)

// MessageEvent is the payload of a "new_message" envelope.
type MessageEvent struct {
	Message Message `json:"message"`
}

// ThreadEvent is the payload of a "new_thread" envelope.
type ThreadEvent struct {
	Thread Thread `json:"thread"`
}

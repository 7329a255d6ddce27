package domain

import (
	"fmt"
	"time"
)

// Identity is the authenticated principal's stable identifier. It is set
// when sign-in completes and cleared on sign-out; changing it tears down
// and rebuilds the realtime channel subscription.
type Identity int64

// ChannelFor derives the private per-user channel name for an identity.
// The push service authorizes exactly one subscriber identity per channel.
func ChannelFor(id Identity) string {
	return fmt.Sprintf("private-chat_user_%d", id)
}

// ConnectionState is the observable lifecycle state of the realtime link.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Thread is a direct-message conversation between community members.
type Thread struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Excerpt   string    `json:"excerpt"`
	Unread    bool      `json:"unread"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single entry in a thread.
type Message struct {
	ID          int64     `json:"id"`
	ThreadID    int64     `json:"thread_id"`
	SenderID    int64     `json:"sender_id"`
	ClientMsgID string    `json:"client_msg_id,omitempty"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReactionState is the render-state record behind a reaction toggle.
type ReactionState struct {
	HasReacted bool  `json:"has_reacted"`
	Count      int64 `json:"count"`
}

// BookmarkState is the render-state record behind a bookmark toggle.
type BookmarkState struct {
	Bookmarked bool `json:"bookmarked"`
}

// MessageDraft is the render-state record for an optimistically sent
// message: it renders immediately with a client-generated id and is
// replaced by the server copy once the send confirms.
type MessageDraft struct {
	ClientMsgID string    `json:"client_msg_id"`
	ThreadID    int64     `json:"thread_id"`
	Body        string    `json:"body"`
	Pending     bool      `json:"pending"`
	CreatedAt   time.Time `json:"created_at"`
}

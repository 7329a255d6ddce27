package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"huddle/internal/core/contracts"
	"huddle/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	handshakeWait  = 10 * time.Second
	maxMessageSize = 512 * 1024
)

// Protocol frames exchanged with the push service.
const (
	evConnEstablished = "pusher:connection_established"
	evSubscribe       = "pusher:subscribe"
	evUnsubscribe     = "pusher:unsubscribe"
	evSubscriptionOK  = "pusher_internal:subscription_succeeded"
	evSubscriptionErr = "pusher_internal:subscription_error"
	evError           = "pusher:error"
	evPing            = "pusher:ping"
	evPong            = "pusher:pong"
)

type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Transport dials the push service over a websocket speaking the pusher
// wire shape. Each Dial yields an independent Conn.
type Transport struct {
	log    *slog.Logger
	url    string
	dialer *websocket.Dialer
}

func NewTransport(log *slog.Logger, url string) *Transport {
	return &Transport{
		log: log,
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeWait,
		},
	}
}

func (t *Transport) Dial(ctx context.Context, hooks contracts.Hooks) (contracts.Conn, error) {
	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	// The service greets with connection_established carrying the
	// socket id the authorization exchange needs.
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake read: %w", err)
	}
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Event != evConnEstablished {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected handshake frame %q", f.Event)
	}
	var hello struct {
		SocketID string `json:"socket_id"`
	}
	if err := json.Unmarshal(unwrap(f.Data), &hello); err != nil || hello.SocketID == "" {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake missing socket_id")
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Conn{
		log:        t.log,
		ws:         conn,
		socketID:   hello.SocketID,
		hooks:      hooks,
		subWaiters: make(map[string]chan error),
		done:       make(chan struct{}),
	}
	go c.readLoop()

	t.log.Info("ws - dial - connection established", logging.Socket(hello.SocketID))
	return c, nil
}

// unwrap tolerates the double-encoded data field pusher-protocol servers
// emit (a JSON string containing JSON).
func unwrap(raw json.RawMessage) json.RawMessage {
	if len(raw) > 1 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return json.RawMessage(s)
		}
	}
	return raw
}

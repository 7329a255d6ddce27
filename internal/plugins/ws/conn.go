package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"huddle/internal/core/contracts"
	"huddle/internal/core/domain"
	"huddle/pkg/logging"
)

// Conn is one live connection. The read loop owns all inbound frames and
// invokes the hooks in delivery order; writes are serialized by writeMu.
type Conn struct {
	log      *slog.Logger
	ws       *websocket.Conn
	socketID string
	hooks    contracts.Hooks

	writeMu sync.Mutex

	mu         sync.Mutex
	closed     bool
	subWaiters map[string]chan error

	once sync.Once
	done chan struct{}
}

func (c *Conn) SocketID() string { return c.socketID }

type subscribePayload struct {
	Channel     string `json:"channel"`
	Auth        string `json:"auth,omitempty"`
	ChannelData string `json:"channel_data,omitempty"`
}

// Subscribe sends the signed grant and blocks until the service confirms
// the subscription, the context expires, or the connection dies.
func (c *Conn) Subscribe(ctx context.Context, channel string, grant contracts.Grant) error {
	waiter := make(chan error, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrTransportClosed
	}
	c.subWaiters[channel] = waiter
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.subWaiters, channel)
		c.mu.Unlock()
	}()

	err := c.writeFrame(frame{Event: evSubscribe}, subscribePayload{
		Channel:     channel,
		Auth:        grant.Auth,
		ChannelData: grant.ChannelData,
	})
	if err != nil {
		return err
	}

	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return domain.ErrTransportClosed
	}
}

func (c *Conn) Unsubscribe(channel string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.writeFrame(frame{Event: evUnsubscribe}, subscribePayload{Channel: channel})
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })

	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) writeFrame(f frame, payload any) error {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		f.Data = data
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(f)
}

func (c *Conn) readLoop() {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			deliberate := c.closed
			c.closed = true
			c.mu.Unlock()
			c.once.Do(func() { close(c.done) })
			if !deliberate {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.log.Warn("ws - read loop - unexpected close", logging.Err(err))
				}
				if c.hooks.OnStateChange != nil {
					c.hooks.OnStateChange(domain.StateErrored)
				}
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Debug("ws - read loop - malformed frame dropped", logging.Err(err))
			continue
		}

		switch f.Event {
		case evPing:
			_ = c.writeFrame(frame{Event: evPong}, nil)
		case evSubscriptionOK:
			c.settleSubscription(f.Channel, nil)
		case evSubscriptionErr:
			c.settleSubscription(f.Channel, domain.ErrSubscriptionFailed)
		case evError:
			c.log.Warn("ws - read loop - protocol error frame", logging.Event(f.Event))
		default:
			if strings.HasPrefix(f.Event, "pusher") {
				continue
			}
			if c.hooks.OnEnvelope != nil {
				c.hooks.OnEnvelope(domain.EventEnvelope{
					EventType: f.Event,
					Payload:   unwrap(f.Data),
				})
			}
		}
	}
}

func (c *Conn) settleSubscription(channel string, result error) {
	c.mu.Lock()
	w := c.subWaiters[channel]
	delete(c.subWaiters, channel)
	c.mu.Unlock()
	if w != nil {
		w <- result
	}
}

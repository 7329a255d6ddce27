package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle/internal/core/contracts"
	"huddle/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var upgrader = websocket.Upgrader{}

// pushServer fakes the push service: greet, confirm subscriptions, and
// relay whatever the test script sends.
func pushServer(t *testing.T, script func(*websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		script(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func greet(t *testing.T, conn *websocket.Conn, socketID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame{
		Event: evConnEstablished,
		Data:  json.RawMessage(`{"socket_id":"` + socketID + `"}`),
	}))
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestTransport_DialAndSubscribe(t *testing.T) {
	subscribed := make(chan subscribePayload, 1)
	srv, url := pushServer(t, func(conn *websocket.Conn) {
		greet(t, conn, "81.4567")

		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		require.Equal(t, evSubscribe, f.Event)
		var p subscribePayload
		require.NoError(t, json.Unmarshal(f.Data, &p))
		subscribed <- p

		require.NoError(t, conn.WriteJSON(frame{Event: evSubscriptionOK, Channel: p.Channel}))
		require.NoError(t, conn.WriteJSON(frame{
			Event:   "new_message",
			Channel: p.Channel,
			Data:    json.RawMessage(`{"message":{"id":901,"body":"hi"}}`),
		}))
		drain(conn)
	})
	defer srv.Close()

	envelopes := make(chan domain.EventEnvelope, 1)
	tr := NewTransport(testLogger(), url)
	conn, err := tr.Dial(context.Background(), contracts.Hooks{
		OnEnvelope: func(env domain.EventEnvelope) { envelopes <- env },
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "81.4567", conn.SocketID())

	err = conn.Subscribe(context.Background(), "private-chat_user_42", contracts.Grant{Auth: "key:sig"})
	require.NoError(t, err)

	p := <-subscribed
	assert.Equal(t, "private-chat_user_42", p.Channel)
	assert.Equal(t, "key:sig", p.Auth)

	select {
	case env := <-envelopes:
		assert.Equal(t, "new_message", env.EventType)
		var ev domain.MessageEvent
		require.NoError(t, json.Unmarshal(env.Payload, &ev))
		assert.Equal(t, int64(901), ev.Message.ID)
	case <-time.After(time.Second):
		t.Fatal("envelope not delivered")
	}
}

func TestTransport_SubscriptionError(t *testing.T) {
	srv, url := pushServer(t, func(conn *websocket.Conn) {
		greet(t, conn, "81.1")
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		require.NoError(t, conn.WriteJSON(frame{Event: evSubscriptionErr, Channel: "private-chat_user_42"}))
		drain(conn)
	})
	defer srv.Close()

	tr := NewTransport(testLogger(), url)
	conn, err := tr.Dial(context.Background(), contracts.Hooks{})
	require.NoError(t, err)
	defer conn.Close()

	err = conn.Subscribe(context.Background(), "private-chat_user_42", contracts.Grant{Auth: "key:sig"})
	require.ErrorIs(t, err, domain.ErrSubscriptionFailed)
}

func TestTransport_BadHandshake(t *testing.T) {
	srv, url := pushServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(frame{Event: "pusher:pong"})
		drain(conn)
	})
	defer srv.Close()

	tr := NewTransport(testLogger(), url)
	_, err := tr.Dial(context.Background(), contracts.Hooks{})
	require.Error(t, err)
}

func TestTransport_DropReportsErrored(t *testing.T) {
	srv, url := pushServer(t, func(conn *websocket.Conn) {
		greet(t, conn, "81.2")
		_ = conn.Close() // simulate an unexpected drop
	})
	defer srv.Close()

	states := make(chan domain.ConnectionState, 1)
	tr := NewTransport(testLogger(), url)
	conn, err := tr.Dial(context.Background(), contracts.Hooks{
		OnStateChange: func(s domain.ConnectionState) { states <- s },
	})
	require.NoError(t, err)
	defer conn.Close()

	select {
	case s := <-states:
		assert.Equal(t, domain.StateErrored, s)
	case <-time.After(time.Second):
		t.Fatal("drop not reported")
	}
}

func TestTransport_DeliberateCloseIsSilent(t *testing.T) {
	srv, url := pushServer(t, func(conn *websocket.Conn) {
		greet(t, conn, "81.3")
		drain(conn)
	})
	defer srv.Close()

	states := make(chan domain.ConnectionState, 1)
	tr := NewTransport(testLogger(), url)
	conn, err := tr.Dial(context.Background(), contracts.Hooks{
		OnStateChange: func(s domain.ConnectionState) { states <- s },
	})
	require.NoError(t, err)

	require.NoError(t, conn.Unsubscribe("private-chat_user_42"))
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "double close is a no-op")

	select {
	case s := <-states:
		t.Fatalf("unexpected state report %v after deliberate close", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "double encoded", in: `"{\"a\":1}"`, want: `{"a":1}`},
		{name: "plain string stays", in: `"hello"`, want: `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unwrap(json.RawMessage(tt.in))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

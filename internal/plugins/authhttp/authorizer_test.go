package authhttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthorizer_GrantIssued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "81.4567", r.FormValue("socket_id"))
		assert.Equal(t, "private-chat_user_42", r.FormValue("channel_name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"auth":"appkey:signature"}`))
	}))
	defer srv.Close()

	a := NewAuthorizer(testLogger(), srv.Client(), srv.URL, "token-123")
	grant, err := a.Authorize(context.Background(), "81.4567", "private-chat_user_42")

	require.NoError(t, err)
	assert.Equal(t, "appkey:signature", grant.Auth)
}

func TestAuthorizer_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "forbidden", http.StatusForbidden)
			},
		},
		{
			name: "malformed grant body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"auth":`))
			},
		},
		{
			name: "empty grant",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := NewAuthorizer(testLogger(), srv.Client(), srv.URL, "token-123")
			_, err := a.Authorize(context.Background(), "81.4567", "private-chat_user_42")

			require.ErrorIs(t, err, domain.ErrAuthorizationFailed)
		})
	}
}

func TestAuthorizer_ExchangeTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	a := NewAuthorizer(testLogger(), srv.Client(), srv.URL, "token-123")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Authorize(ctx, "81.4567", "private-chat_user_42")
	require.ErrorIs(t, err, domain.ErrAuthorizationFailed)
}

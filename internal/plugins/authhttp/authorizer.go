package authhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"huddle/internal/core/contracts"
	"huddle/internal/core/domain"
	"huddle/pkg/logging"
)

// Authorizer performs the private-channel authorization exchange: it posts
// the transport-issued socket id and the target channel name to the
// backend with the bearer credential and returns the signed grant the
// transport consumes. Any non-2xx response is an authorization failure.
type Authorizer struct {
	log    *slog.Logger
	client *http.Client
	url    string
	token  string
}

func NewAuthorizer(log *slog.Logger, client *http.Client, authURL, token string) *Authorizer {
	return &Authorizer{
		log:    log,
		client: client,
		url:    authURL,
		token:  token,
	}
}

func (a *Authorizer) Authorize(ctx context.Context, socketID, channel string) (contracts.Grant, error) {
	form := url.Values{}
	form.Set("socket_id", socketID)
	form.Set("channel_name", channel)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(form.Encode()))
	if err != nil {
		return contracts.Grant{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.ErrorContext(ctx, "authhttp - authorize - exchange failed",
			logging.Channel(channel), logging.Socket(socketID), logging.Err(err))
		return contracts.Grant{}, fmt.Errorf("%w: %v", domain.ErrAuthorizationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.ErrorContext(ctx, "authhttp - authorize - rejected",
			logging.Channel(channel), slog.Int("status", resp.StatusCode))
		return contracts.Grant{}, fmt.Errorf("%w: status %d", domain.ErrAuthorizationFailed, resp.StatusCode)
	}

	var grant contracts.Grant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil || grant.Auth == "" {
		a.log.ErrorContext(ctx, "authhttp - authorize - malformed grant", logging.Channel(channel), logging.Err(err))
		return contracts.Grant{}, fmt.Errorf("%w: malformed grant", domain.ErrAuthorizationFailed)
	}

	a.log.InfoContext(ctx, "authhttp - authorize - grant issued", logging.Channel(channel), logging.Socket(socketID))
	return grant, nil
}

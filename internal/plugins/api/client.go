package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"huddle/internal/core/domain"
	"huddle/pkg/logging"
)

// Client talks to the community backend's REST surface. It implements
// contracts.CommunityAPI; the toggle and send operations double as the
// confirm step of the optimistic flows.
type Client struct {
	log    *slog.Logger
	client *http.Client
	base   string
	token  string
}

func NewClient(log *slog.Logger, client *http.Client, baseURL, token string) *Client {
	return &Client{
		log:    log,
		client: client,
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
	}
}

func (c *Client) ToggleReaction(ctx context.Context, postID int64) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/posts/%d/reactions/toggle", postID), nil, nil)
}

func (c *Client) ToggleBookmark(ctx context.Context, postID int64) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/posts/%d/bookmark/toggle", postID), nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, threadID int64, clientMsgID, body string) (domain.Message, error) {
	req := struct {
		ClientMsgID string `json:"client_msg_id"`
		Body        string `json:"body"`
	}{ClientMsgID: clientMsgID, Body: body}

	var msg domain.Message
	err := c.post(ctx, fmt.Sprintf("/api/v1/threads/%d/messages", threadID), req, &msg)
	if err != nil {
		return domain.Message{}, err
	}
	c.log.InfoContext(ctx, "api - send message - accepted", logging.ClientMsg(clientMsgID))
	return msg, nil
}

func (c *Client) RecentThreads(ctx context.Context) ([]domain.Thread, error) {
	var out struct {
		Threads []domain.Thread `json:"threads"`
	}
	if err := c.get(ctx, "/api/v1/threads", &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.ErrorContext(req.Context(), "api - request - transport error",
			slog.String("path", req.URL.Path), logging.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.ErrorContext(req.Context(), "api - request - rejected",
			slog.String("path", req.URL.Path), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Package rest is the HTTP collaborator of the sync layer: channel
// listings, message history and message sends. Responses feed the
// store's LoadHistory and Reconcile operations.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides REST API access to the TeamFlow server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a REST client. baseURL should be the API base,
// e.g. "http://localhost:8000/api/v1".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetToken sets the bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login authenticates with credentials and returns a token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListChannels returns all channels visible to the authenticated user.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var resp []Channel
	if err := c.do(ctx, http.MethodGet, "/channels", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetChannel returns one channel by ID.
func (c *Client) GetChannel(ctx context.Context, id string) (*Channel, error) {
	var resp Channel
	if err := c.do(ctx, http.MethodGet, "/channels/"+url.PathEscape(id), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateChannel creates a channel.
func (c *Client) CreateChannel(ctx context.Context, req CreateChannelRequest) (*Channel, error) {
	var resp Channel
	if err := c.do(ctx, http.MethodPost, "/channels", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMessages retrieves message history for a channel, oldest first.
// limit caps the page size (server default applies when 0). before, if
// non-empty, returns messages before that message ID.
func (c *Client) GetMessages(ctx context.Context, channelID string, limit int, before string) (*MessagesPage, error) {
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if before != "" {
		q.Set("before", before)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp MessagesPage
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage posts a message and returns the created message with its
// server-assigned ID.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	var resp Message
	if err := c.do(ctx, http.MethodPost, "/messages", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateMessage edits a message's content.
func (c *Client) UpdateMessage(ctx context.Context, id, content string) (*Message, error) {
	var resp Message
	path := "/messages/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, UpdateMessageRequest{Content: content}, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any, requireAuth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: %s (status %d)", string(raw), resp.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Package history is the REST collaborator: per-conversation message
// history, the user roster, and the group directory, fetched with a bearer
// token at conversation-activation time.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/flowchat-im/flowchat/conversation"
	"github.com/flowchat-im/flowchat/presence"
)

// ErrNoToken is returned before any network I/O when the client has no
// bearer token: a missing token is a precondition failure, not a transport
// error.
var ErrNoToken = errors.New("history: no auth token")

// Group is one entry of the group directory.
type Group struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// envelope is the server's uniform response wrapper. Data is left raw
// because its shape varies per endpoint (and history endpoints may return
// one message or an array).
type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// Client fetches from the server's REST API.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a Client for the API at base (e.g.
// "https://chat.example.com/api") authenticating with token. A nil
// httpClient falls back to a client with a 15s timeout.
func NewClient(base, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  httpClient,
	}
}

// ChatHistory fetches the ordered direct-message history with peerID.
func (c *Client) ChatHistory(ctx context.Context, peerID string) ([]conversation.Message, error) {
	raw, err := c.get(ctx, "/messages/"+peerID)
	if err != nil {
		return nil, err
	}
	return normalizeMessages(raw)
}

// GroupHistory fetches the ordered message history of a group.
func (c *Client) GroupHistory(ctx context.Context, groupID string) ([]conversation.Message, error) {
	raw, err := c.get(ctx, "/messages/group/"+groupID)
	if err != nil {
		return nil, err
	}
	return normalizeMessages(raw)
}

// Users fetches the known-peer roster with presence flags.
func (c *Client) Users(ctx context.Context) ([]presence.Entry, error) {
	raw, err := c.get(ctx, "/users")
	if err != nil {
		return nil, err
	}
	var users []presence.Entry
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

// Groups fetches the group directory for the current user.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	raw, err := c.get(ctx, "/groups")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var groups []Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, errors.Wrap(err, "decode groups")
	}
	return groups, nil
}

// get performs one authenticated GET and returns the envelope's data field.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return env.Data, nil
}

// normalizeMessages decodes the data field of a history response,
// normalizing the single-message shape to a slice.
func normalizeMessages(raw json.RawMessage) ([]conversation.Message, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var msgs []conversation.Message
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, errors.Wrap(err, "decode history")
		}
		return msgs, nil
	}

	var one conversation.Message
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, errors.Wrap(err, "decode history")
	}
	return []conversation.Message{one}, nil
}

package heartbeat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

var (
	ErrUnauthorized   = errors.New("backend rejected node credentials")
	ErrBackendFailure = errors.New("backend request failed")
)

const apiKeyHeader = "X-API-Key"

// Client talks to the backend's node-facing endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	creds   *Credentials
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetCredentials installs the identity used for authenticated calls.
func (c *Client) SetCredentials(creds *Credentials) {
	c.creds = creds
}

func (c *Client) Credentials() *Credentials {
	return c.creds
}

// Register creates a node record and returns its one-time credentials.
// It is the only unauthenticated call.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	var out models.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/nodes/register", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendHeartbeat delivers one heartbeat and returns the backend's ack.
func (c *Client) SendHeartbeat(ctx context.Context, hb models.Heartbeat) (*models.HeartbeatAck, error) {
	if c.creds == nil {
		return nil, fmt.Errorf("%w: no credentials set", ErrUnauthorized)
	}

	var ack models.HeartbeatAck
	path := fmt.Sprintf("/nodes/%d/heartbeat", c.creds.NodeID)
	if err := c.do(ctx, http.MethodPost, path, hb, &ack, true); err != nil {
		return nil, err
	}
	return &ack, nil
}

// FetchConfig pulls the authoritative pool configuration.
func (c *Client) FetchConfig(ctx context.Context) (*models.ConfigResponse, error) {
	if c.creds == nil {
		return nil, fmt.Errorf("%w: no credentials set", ErrUnauthorized)
	}

	var out models.ConfigResponse
	path := fmt.Sprintf("/nodes/%d/config", c.creds.NodeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, authed bool) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set(apiKeyHeader, c.creds.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrBackendFailure, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: invalid response body: %v", ErrBackendFailure, err)
		}
	}
	return nil
}

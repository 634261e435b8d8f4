package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d", e.Method, e.Endpoint, e.StatusCode)
}

type Client struct {
	inner *http.Client
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{inner: &http.Client{Timeout: timeout}}
}

// NewWithHTTPClient wraps an existing client, mainly for tests and custom transports.
func NewWithHTTPClient(c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{inner: c}
}

func (c *Client) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body any) error {
	_, _, err := c.sendJSON(ctx, http.MethodPost, endpoint, headers, body)
	return err
}

// PostJSONDecode posts body and decodes a successful response into out.
func (c *Client) PostJSONDecode(ctx context.Context, endpoint string, headers map[string]string, body, out any) error {
	_, raw, err := c.sendJSON(ctx, http.MethodPost, endpoint, headers, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint string, headers map[string]string, body any) (int, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.inner.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	bodyRaw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return resp.StatusCode, nil, readErr
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, bodyRaw, nil
	}
	return resp.StatusCode, bodyRaw, &StatusError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: bodyRaw}
}

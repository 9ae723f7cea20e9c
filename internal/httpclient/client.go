// Package httpclient provides a small JSON-aware HTTP client shared by the
// outbound integrations (search providers, LLM backend, webhook, fetcher).
package httpclient

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

// DefaultTimeout applies when the config leaves Timeout unset.
const DefaultTimeout = 20 * time.Second

// Config holds client configuration.
type Config struct {
	// Timeout is the whole-request timeout. Per-call deadlines via context
	// take precedence when shorter.
	Timeout time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
	// FollowRedirects enables redirect following (default true).
	NoRedirects bool
}

// Client is a configured HTTP client.
type Client struct {
	hc  *http.Client
	cfg Config
}

// New creates a client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.NoRedirects {
		hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Client{hc: hc, cfg: cfg}
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError reports a non-2xx response from a JSON call.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// Do executes a request and reads the full response body. Non-2xx responses
// are returned, not treated as errors; callers that want an error should use
// the JSON helpers.
func (c *Client) Do(ctx context.Context, method, rawURL string, query url.Values, headers map[string]string, body []byte) (*Response, error) {
	if len(query) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// GetJSON issues a GET and decodes a 2xx JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, query, nil, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// PostJSON issues a POST with a JSON body and decodes a 2xx JSON response
// into out. out may be nil when the response body is irrelevant.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	resp, err := c.Do(ctx, http.MethodPost, rawURL, nil, headers, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *Response, out any) error {
	if !resp.OK() {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package api is the HTTP gateway to the dashboard backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sailboard/dashboard/internal/session"
)

const (
	// DefaultTimeout bounds every regular request.
	DefaultTimeout = 10 * time.Second
	// HealthTimeout bounds the connectivity check.
	HealthTimeout = 3 * time.Second

	maxResponseBytes = 32 << 20
)

// Client handles communication with the dashboard REST backend.
// It never retries; callers decide whether to try again.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	healthClient *http.Client
	sessions     session.Store
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHealthTimeout overrides the health check timeout.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.healthClient.Timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, used for submission timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a new API client. A nil store means requests are never authenticated.
func New(baseURL string, sessions session.Store, opts ...Option) *Client {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		healthClient: &http.Client{Timeout: HealthTimeout},
		sessions:     sessions,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sessions returns the session store the client reads credentials from.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// Healthcheck reports whether the backend is reachable.
// A failed check has no side effects on the client or its session.
func (c *Client) Healthcheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		c.logger.Debug("Healthcheck failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Do issues a request against a path relative to the base URL and returns the
// raw JSON body. body, when non-nil, is JSON-encoded.
//
// Errors are *AuthError, *NetworkError or *ServerError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", "method", method, "path", path, "error", err)
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if err := c.sessions.Clear(); err != nil {
			c.logger.Warn("Failed to clear session", "error", err)
		}
		return nil, &AuthError{Status: resp.StatusCode, Message: extractMessage(data)}
	case resp.StatusCode >= 400:
		c.logger.Debug("Server error", "method", method, "path", path, "status", resp.StatusCode)
		return nil, &ServerError{Status: resp.StatusCode, Message: extractMessage(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

// getJSON performs a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(data, out)
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// authorize attaches the bearer token of a live session.
// Expired JWT sessions are dropped instead of being sent.
func (c *Client) authorize(req *http.Request) {
	s, err := c.sessions.Load()
	if err != nil {
		c.logger.Warn("Failed to load session", "error", err)
		return
	}
	if s == nil || s.Token == "" {
		return
	}
	if session.Expired(s, c.now()) {
		c.logger.Info("Session token expired, clearing session")
		_ = c.sessions.Clear()
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
}

func decode(data json.RawMessage, out any) error {
	if len(data) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error body.
func extractMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

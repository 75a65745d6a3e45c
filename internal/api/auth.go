package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sailboard/dashboard/internal/session"
	"github.com/sailboard/dashboard/pkg/core"
)

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Login authenticates against the dashboard login endpoint and stores the session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*core.Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, errors.New("email and password are required")
	}
	data, err := c.Do(ctx, http.MethodPost, "/auth/dashboard-login", creds)
	if err != nil {
		return nil, err
	}
	return c.storeSession(data)
}

// Register creates an account. When the backend answers with a token the
// new session is stored as well.
func (c *Client) Register(ctx context.Context, reg Registration) (*core.Session, error) {
	data, err := c.Do(ctx, http.MethodPost, "/auth/register", reg)
	if err != nil {
		return nil, err
	}
	var resp authResponse
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, nil
	}
	return c.storeSession(data)
}

// Logout drops the stored session.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// CurrentSession returns the stored session, or nil when logged out or expired.
func (c *Client) CurrentSession() *core.Session {
	s, err := c.sessions.Load()
	if err != nil || s == nil {
		return nil
	}
	if s.Token == "" {
		return nil
	}
	if session.Expired(s, c.now()) {
		_ = c.sessions.Clear()
		return nil
	}
	return s
}

// IsAuthenticated reports whether a session token is stored.
func (c *Client) IsAuthenticated() bool {
	return c.CurrentSession() != nil
}

// IsAdmin reports whether the stored user has the admin role.
func (c *Client) IsAdmin() bool {
	return c.CurrentSession().IsAdmin()
}

func (c *Client) storeSession(data json.RawMessage) (*core.Session, error) {
	var resp authResponse
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response has no token: %w", ErrEmptyResponse)
	}
	s := &core.Session{Token: resp.Token, User: resp.User}
	if err := c.sessions.Save(s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

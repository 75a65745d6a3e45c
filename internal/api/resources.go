package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// UserQuery filters the admin user list. Zero values are omitted.
type UserQuery struct {
	Page   int
	Limit  int
	Role   string
	Status string
	Search string
}

func (q UserQuery) values() url.Values {
	v := url.Values{}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	setString(v, "role", q.Role)
	setString(v, "status", q.Status)
	setString(v, "search", q.Search)
	return v
}

// PaymentQuery filters the payment list. Dates are passed through as given.
type PaymentQuery struct {
	Page      int
	Limit     int
	UserID    string
	Status    string
	Source    string
	StartDate string
	EndDate   string
}

func (q PaymentQuery) values() url.Values {
	v := url.Values{}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	setString(v, "userId", q.UserID)
	setString(v, "status", q.Status)
	setString(v, "source", q.Source)
	setString(v, "startDate", q.StartDate)
	setString(v, "endDate", q.EndDate)
	return v
}

// DocumentQuery filters the CV and cover letter lists.
type DocumentQuery struct {
	Page      int
	Limit     int
	UserID    string
	Template  string
	Search    string
	SortBy    string
	SortOrder string
}

func (q DocumentQuery) values() url.Values {
	v := url.Values{}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	setString(v, "userId", q.UserID)
	setString(v, "template", q.Template)
	setString(v, "search", q.Search)
	setString(v, "sortBy", q.SortBy)
	setString(v, "sortOrder", q.SortOrder)
	return v
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Set(key, s)
	}
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func userPath(id string, suffix string) string {
	return "/users/" + url.PathEscape(id) + suffix
}

// ListUsers returns a page of users.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, withQuery("/users", q.values()), nil)
}

// GetUser returns one user.
func (c *Client) GetUser(ctx context.Context, id string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, userPath(id, ""), nil)
}

// CreateUser creates a user from an arbitrary JSON-encodable body.
func (c *Client) CreateUser(ctx context.Context, user any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, "/users", user)
}

// UpdateUser replaces a user's editable fields.
func (c *Client) UpdateUser(ctx context.Context, id string, user any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, userPath(id, ""), user)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.Do(ctx, http.MethodDelete, userPath(id, ""), nil)
	return err
}

// SetUserRole changes a user's role.
func (c *Client) SetUserRole(ctx context.Context, id, role string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPatch, userPath(id, "/role"), map[string]string{"role": role})
}

// SetUserStatus changes a user's account status.
func (c *Client) SetUserStatus(ctx context.Context, id, status string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPatch, userPath(id, "/status"), map[string]string{"status": status})
}

// ResetUserPassword triggers a password reset for a user.
func (c *Client) ResetUserPassword(ctx context.Context, id string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, userPath(id, "/reset-password"), nil)
}

// ListPayments returns a page of payments.
func (c *Client) ListPayments(ctx context.Context, q PaymentQuery) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, withQuery("/payments", q.values()), nil)
}

// CreatePayment records a payment.
func (c *Client) CreatePayment(ctx context.Context, payment any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, "/payments", payment)
}

// ListCVs returns a page of CVs.
func (c *Client) ListCVs(ctx context.Context, q DocumentQuery) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, withQuery("/cvs", q.values()), nil)
}

// ListCoverLetters returns a page of cover letters.
func (c *Client) ListCoverLetters(ctx context.Context, q DocumentQuery) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, withQuery("/coverletters", q.values()), nil)
}

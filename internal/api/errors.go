package api

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the backend answers with no body where data was expected.
var ErrEmptyResponse = errors.New("no data received from API")

// AuthError is returned for 401/403 responses. The session has already been
// cleared when the caller sees it; the caller should send the user to login.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("authentication failed (status %d)", e.Status)
}

// UserMessage is the text shown to the user.
func (e *AuthError) UserMessage() string {
	return "Your session is no longer valid. Please log in again."
}

// NetworkError is returned when no response was received, including timeouts.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user.
func (e *NetworkError) UserMessage() string {
	return "Unable to reach the server. Check your connection or switch to mock mode."
}

// ServerError is returned for any other 4xx/5xx response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

// UserMessage is the text shown to the user, verbatim from the server when available.
func (e *ServerError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("The server could not complete the request (status %d).", e.Status)
}

// UserMessage returns the user-facing text for any gateway error,
// falling back to err.Error() for everything else.
func UserMessage(err error) string {
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) {
		return msg.UserMessage()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetwork reports whether err means the backend could not be reached.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sailboard/dashboard/internal/aggregate"
	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/fleet"
	"github.com/sailboard/dashboard/internal/transform"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var (
		authErr      *api.AuthError
		serverErr    *api.ServerError
		unavailable  *fleet.UnavailableError
		malformed    *transform.MalformedRecordError
		invalidInput *aggregate.InvalidInputError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &unavailable), api.IsNetwork(err):
		return http.StatusServiceUnavailable
	case errors.As(err, &serverErr), errors.As(err, &malformed), errors.Is(err, api.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest
	case errors.Is(err, fleet.ErrUnknownShip):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err with its mapped status.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Error: api.UserMessage(err)}
	if status == http.StatusServiceUnavailable {
		body.Suggestion = "Switch to mock mode to keep browsing with sample data."
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg})
}

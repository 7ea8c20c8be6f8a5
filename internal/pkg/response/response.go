// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"

	xerrors "lms-web/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Response is the JSON envelope of the presentation API.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Error aborts the chain and sends an error response. The error text is
// only exposed for client errors; server errors carry the message alone.
func Error(c *gin.Context, code int, message string, err error, data ...any) {
	c.Abort()

	resp := Response{
		Success:   false,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	}
	if err != nil && code < http.StatusInternalServerError {
		resp.Error = err.Error()
	}
	if len(data) > 0 {
		resp.Data = data[0]
	}

	c.JSON(code, resp)
}

// AuthFailure reports a rejected login or registration with its user message.
func AuthFailure(c *gin.Context, aerr *xerrors.AuthError) {
	code := http.StatusUnauthorized
	switch aerr.Kind {
	case xerrors.InvalidCredentials:
		code = http.StatusBadRequest
	case xerrors.UnknownUser:
		code = http.StatusNotFound
	}
	c.Abort()
	c.JSON(code, Response{
		Success:   false,
		Message:   aerr.UserMessage(),
		Error:     aerr.Kind.String(),
		RequestID: c.GetString(RequestIDKey),
	})
}

// FromError maps an application error onto a status code.
func FromError(c *gin.Context, err error) {
	if aerr, ok := xerrors.AsAuthError(err); ok {
		AuthFailure(c, aerr)
		return
	}

	switch {
	case errors.Is(err, xerrors.ErrAuthorizationRejected):
		Error(c, http.StatusUnauthorized, "session expired", nil)
	case errors.Is(err, xerrors.ErrInvalidInput), errors.Is(err, xerrors.ErrBadRequest):
		Error(c, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, xerrors.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, "authentication required", nil)
	case errors.Is(err, xerrors.ErrForbidden):
		Forbidden(c, "insufficient permissions")
	case errors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, "not found", nil)
	default:
		Error(c, http.StatusInternalServerError, "internal server error", err)
	}
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response with optional details.
func Forbidden(c *gin.Context, message string, data ...any) {
	Error(c, http.StatusForbidden, message, nil, data...)
}

package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrBadRequest   = errors.New("bad request")

	// ErrSessionRevalidationFailed means a stored session was no longer accepted by the backend.
	ErrSessionRevalidationFailed = errors.New("stored session revalidation failed")

	// ErrAuthorizationRejected means an authorized call was rejected mid-session.
	// The local session has already been torn down when this is returned.
	ErrAuthorizationRejected = errors.New("authorization rejected, session invalidated")
)

// DecodeError is returned when a credential is not a structurally valid token.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode credential: %s: %v", e.Reason, e.Err)
	}
	return "decode credential: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AuthErrorKind classifies a rejected login or registration.
type AuthErrorKind int

const (
	AuthenticationFailed AuthErrorKind = iota
	InvalidCredentials
	UnknownUser
)

func (k AuthErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case UnknownUser:
		return "unknown_user"
	default:
		return "authentication_failed"
	}
}

// AuthError is a normalized login/registration failure.
type AuthError struct {
	Kind    AuthErrorKind
	Status  int    // backend status that produced the error, 0 when none
	Message string // backend message, if any
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user for this kind of failure.
func (e *AuthError) UserMessage() string {
	switch e.Kind {
	case InvalidCredentials:
		return "Invalid credentials"
	case UnknownUser:
		return "User not registered"
	default:
		return "Authentication failed, please try again"
	}
}

// AuthErrorFromStatus maps a backend status code to an AuthError.
func AuthErrorFromStatus(status int, message string) *AuthError {
	kind := AuthenticationFailed
	switch status {
	case 400:
		kind = InvalidCredentials
	case 404:
		kind = UnknownUser
	}
	return &AuthError{Kind: kind, Status: status, Message: message}
}

// AsAuthError extracts an AuthError from err.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

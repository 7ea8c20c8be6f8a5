package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthErrorFromStatus(t *testing.T) {
	tests := []struct {
		status  int
		kind    AuthErrorKind
		message string
	}{
		{400, InvalidCredentials, "Invalid credentials"},
		{404, UnknownUser, "User not registered"},
		{401, AuthenticationFailed, "Authentication failed, please try again"},
		{500, AuthenticationFailed, "Authentication failed, please try again"},
		{0, AuthenticationFailed, "Authentication failed, please try again"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := AuthErrorFromStatus(tt.status, "")
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.message, err.UserMessage())
		})
	}
}

func TestAsAuthError_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("login: %w", AuthErrorFromStatus(404, "user not found"))

	ae, ok := AsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, UnknownUser, ae.Kind)
	assert.Contains(t, err.Error(), "unknown_user (status 404): user not found")
}

func TestDecodeError_Unwrap(t *testing.T) {
	inner := errors.New("bad segment")
	err := Wrap(&DecodeError{Reason: "malformed", Err: inner}, "resolve")

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, "resolve: decode credential: malformed: bad segment", err.Error())
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "anything"))
}

// internal/client/authorizer.go
package client

import (
	"context"
	"io"
	"net/http"

	xerrors "lms-web/internal/pkg/errors"

	"go.uber.org/zap"
)

// CredentialSource yields the credential to attach to outgoing calls.
type CredentialSource interface {
	Credential(ctx context.Context) (string, bool)
}

// Rejector is told which credential the backend refused.
type Rejector interface {
	Reject(ctx context.Context, credential string)
}

type ctxKey int

const (
	anonymousKey ctxKey = iota
	credentialKey
	keepSessionKey
)

// Anonymous marks ctx so no credential is attached to the request.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey, true)
}

// WithCredential pins the credential for requests made with ctx, bypassing the source.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey, credential)
}

// KeepSessionOnReject marks ctx so a 401 is reported as ErrAuthorizationRejected
// without notifying the Rejector. Used where the caller ends the session itself.
func KeepSessionOnReject(ctx context.Context) context.Context {
	return context.WithValue(ctx, keepSessionKey, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey).(bool)
	return v
}

// Authorizer attaches the bearer credential to every request and turns a
// 401 on an authorized request into ErrAuthorizationRejected.
type Authorizer struct {
	base     http.RoundTripper
	source   CredentialSource
	rejector Rejector
	logger   *zap.Logger
}

var _ http.RoundTripper = (*Authorizer)(nil)

func NewAuthorizer(base http.RoundTripper, source CredentialSource, rejector Rejector, logger *zap.Logger) *Authorizer {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Authorizer{base: base, source: source, rejector: rejector, logger: logger}
}

func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	sent := a.credential(ctx)
	if sent != "" {
		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+sent)
	}

	resp, err := a.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || sent == "" {
		return resp, nil
	}

	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck
	resp.Body.Close()

	a.logger.Warn("backend rejected credential",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
	if keep, _ := ctx.Value(keepSessionKey).(bool); !keep && a.rejector != nil {
		a.rejector.Reject(ctx, sent)
	}
	return nil, xerrors.ErrAuthorizationRejected
}

func (a *Authorizer) credential(ctx context.Context) string {
	if isAnonymous(ctx) {
		return ""
	}
	if v, ok := ctx.Value(credentialKey).(string); ok {
		return v
	}
	if a.source == nil {
		return ""
	}
	cred, _ := a.source.Credential(ctx)
	return cred
}

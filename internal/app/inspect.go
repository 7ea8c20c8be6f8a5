// internal/app/inspect.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"lms-web/internal/config"
	"lms-web/internal/domain/auth"
	"lms-web/internal/pkg/jwt"
	"lms-web/internal/pkg/session"

	"go.uber.org/zap"
)

// SessionReport describes the persisted session without revealing the credential.
type SessionReport struct {
	Authenticated       bool           `json:"authenticated"`
	Identity            *auth.Identity `json:"identity,omitempty"`
	CredentialExpiresAt *time.Time     `json:"credential_expires_at,omitempty"`
	CredentialExpired   bool           `json:"credential_expired"`
	CookieName          string         `json:"cookie_name"`
	CookiePresent       bool           `json:"cookie_present"`
}

// SessionFiles is the offline view of the session used by the CLI.
type SessionFiles struct {
	Store   *session.Store
	Cookie  *session.PersistentJar
	backend session.Backend
}

// OpenSessionFiles opens the configured storage without starting the server.
func OpenSessionFiles(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*SessionFiles, error) {
	backend, err := OpenSessionBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := NewSessionStore(cfg, backend, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	base, err := url.Parse(cfg.APIBaseURL())
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("LMS_BACKEND_URL: %w", err)
	}
	jar, err := session.NewPersistentJar(ctx, backend, store.Sealer(), cfg.CookieName, base, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &SessionFiles{Store: store, Cookie: jar, backend: backend}, nil
}

// Inspect reports what the next start would find in storage.
func (f *SessionFiles) Inspect(ctx context.Context, decoder *jwt.Decoder, now time.Time) SessionReport {
	sess := f.Store.Load(ctx)
	report := SessionReport{
		Authenticated: sess.Authenticated(),
		Identity:      sess.Identity,
		CookieName:    f.Cookie.Name(),
	}
	_, report.CookiePresent = f.Cookie.Value(ctx)

	if sess.Credential != "" {
		if claims, err := decoder.Decode(sess.Credential); err == nil {
			if exp := claims.ExpiresAtTime(); !exp.IsZero() {
				report.CredentialExpiresAt = &exp
			}
			report.CredentialExpired = claims.Expired(now)
		}
	}
	return report
}

// Clear removes the stored session and the persisted cookie.
func (f *SessionFiles) Clear(ctx context.Context) error {
	return errors.Join(f.Store.Clear(ctx), f.Cookie.Clear(ctx))
}

func (f *SessionFiles) Close() error {
	return f.backend.Close()
}

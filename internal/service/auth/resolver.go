// internal/service/auth/resolver.go
package auth

import (
	"context"
	"fmt"
	"time"

	"lms-web/internal/domain/auth"
	xerrors "lms-web/internal/pkg/errors"
	"lms-web/internal/pkg/jwt"
	"lms-web/internal/metrics"

	"go.uber.org/zap"
)

// ProfileFetcher fetches the profile a credential belongs to.
type ProfileFetcher interface {
	Me(ctx context.Context, credential string) (*auth.ProfileResponse, error)
}

// Resolution sources, also used as metric labels.
const (
	SourceStorage = "storage"
	SourceCookie  = "cookie"
	SourceEmpty   = "empty"
)

type ResolverOptions struct {
	// Revalidate checks a stored session against /user/me before trusting it.
	Revalidate bool
}

// Resolver picks the startup session from storage, then the bootstrap
// cookie, then nothing. The first source that yields a session wins.
type Resolver struct {
	store    SessionStore
	cookie   BootstrapCookie
	profiles ProfileFetcher
	decoder  *jwt.Decoder
	opts     ResolverOptions
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewResolver(
	store SessionStore,
	cookie BootstrapCookie,
	profiles ProfileFetcher,
	decoder *jwt.Decoder,
	opts ResolverOptions,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		store:    store,
		cookie:   cookie,
		profiles: profiles,
		decoder:  decoder,
		opts:     opts,
		now:      time.Now,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve never fails; every problem ends in a fall-through.
func (r *Resolver) Resolve(ctx context.Context) auth.Session {
	var rejected string

	if stored := r.store.Load(ctx); !stored.IsEmpty() {
		sess, err := r.fromStorage(ctx, stored)
		if err == nil {
			r.logger.Info("session restored from storage", zap.String("user_id", sess.Identity.ID))
			r.metrics.Resolved(SourceStorage)
			return sess
		}

		r.logger.Info("stored session rejected", zap.Error(err))
		if err := r.store.Clear(ctx); err != nil {
			r.logger.Error("failed to clear stored session", zap.Error(err))
		}
		rejected = stored.Credential
	}

	if sess, ok := r.fromCookie(ctx, rejected); ok {
		r.logger.Info("session bootstrapped from cookie", zap.String("user_id", sess.Identity.ID))
		r.metrics.Resolved(SourceCookie)
		return sess
	}

	r.metrics.Resolved(SourceEmpty)
	return auth.Session{}
}

func (r *Resolver) fromStorage(ctx context.Context, stored auth.Session) (auth.Session, error) {
	if !r.opts.Revalidate {
		if claims, err := r.decoder.Decode(stored.Credential); err == nil && claims.Expired(r.now()) {
			return auth.Session{}, fmt.Errorf("%w: credential expired", xerrors.ErrSessionRevalidationFailed)
		}
		return stored, nil
	}

	profile, err := r.profiles.Me(ctx, stored.Credential)
	if err != nil {
		return auth.Session{}, fmt.Errorf("%w: %w", xerrors.ErrSessionRevalidationFailed, err)
	}

	identity := auth.IdentityFromProfile(*profile)
	if identity.ID == "" {
		identity.ID = stored.Identity.ID
	}
	// An empty role object carries no role name.
	if identity.Role == "" {
		identity.Role = stored.Identity.Role
	}
	fresh := auth.Session{Credential: stored.Credential, Identity: &identity}

	if err := r.store.Save(ctx, fresh); err != nil {
		r.logger.Warn("failed to persist refreshed profile, keeping stored copy", zap.Error(err))
		return stored, nil
	}
	return fresh, nil
}

func (r *Resolver) fromCookie(ctx context.Context, rejected string) (auth.Session, bool) {
	if r.cookie == nil {
		return auth.Session{}, false
	}
	value, ok := r.cookie.Value(ctx)
	if !ok {
		return auth.Session{}, false
	}

	if value == rejected {
		r.logger.Info("bootstrap cookie carries the rejected credential, dropping it")
		r.dropCookie(ctx)
		return auth.Session{}, false
	}

	claims, err := r.decoder.Decode(value)
	if err != nil {
		r.logger.Info("bootstrap cookie is not a valid token", zap.Error(err))
		r.dropCookie(ctx)
		return auth.Session{}, false
	}
	if claims.Expired(r.now()) {
		r.logger.Info("bootstrap cookie has expired", zap.Time("expired_at", claims.ExpiresAtTime()))
		r.dropCookie(ctx)
		return auth.Session{}, false
	}

	identity := auth.IdentityFromClaims(claims)
	sess := auth.Session{Credential: value, Identity: &identity}
	if err := r.store.Save(ctx, sess); err != nil {
		r.logger.Error("failed to persist bootstrapped session", zap.Error(err))
		return auth.Session{}, false
	}
	return sess, true
}

func (r *Resolver) dropCookie(ctx context.Context) {
	if err := r.cookie.Clear(ctx); err != nil {
		r.logger.Warn("failed to clear bootstrap cookie", zap.Error(err))
	}
}

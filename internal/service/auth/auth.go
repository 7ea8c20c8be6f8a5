// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lms-web/internal/client"
	"lms-web/internal/domain/auth"
	xerrors "lms-web/internal/pkg/errors"
	"lms-web/internal/pkg/jwt"
	"lms-web/internal/metrics"

	"go.uber.org/zap"
)

// Backend is the LMS collaborator the service exchanges credentials with.
type Backend interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginData, error)
	Register(ctx context.Context, in auth.RegisterInput) (*auth.RegisterData, error)
	Logout(ctx context.Context) error
}

// AuthService is the entry point the presentation layer uses for the session.
type AuthService struct {
	backend  Backend
	manager  *Manager
	resolver *Resolver
	decoder  *jwt.Decoder
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *zap.Logger

	startOnce sync.Once
}

func NewAuthService(
	backend Backend,
	manager *Manager,
	resolver *Resolver,
	decoder *jwt.Decoder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		backend:  backend,
		manager:  manager,
		resolver: resolver,
		decoder:  decoder,
		now:      time.Now,
		metrics:  m,
		logger:   logger,
	}
}

// Start resolves the startup session and publishes it. Only the first call
// does anything.
func (s *AuthService) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		sess := s.resolver.Resolve(ctx)
		s.manager.settle(sess)
	})
}

// Manager exposes the published session.
func (s *AuthService) Manager() *Manager { return s.manager }

// State is the current presentation view of the session.
func (s *AuthService) State() auth.SessionState { return s.manager.State() }

// Session is a copy of the current session.
func (s *AuthService) Session() auth.Session { return s.manager.Snapshot() }

// ========== Login ==========

// Login exchanges credentials with the backend and publishes the new session.
// On failure the stored session is left untouched.
func (s *AuthService) Login(ctx context.Context, email, password string) (auth.Session, error) {
	email = strings.TrimSpace(email)

	data, err := s.backend.Login(ctx, auth.LoginRequest{Email: email, Password: password})
	if err != nil {
		return auth.Session{}, s.fail("login", email, err)
	}

	sess, err := s.sessionFromLogin(data)
	if err != nil {
		return auth.Session{}, s.fail("login", email, err)
	}

	if err := s.manager.Establish(ctx, sess, ReasonLogin); err != nil {
		return auth.Session{}, s.fail("login", email, xerrors.Wrap(err, "persist session"))
	}

	s.metrics.AuthAttempt("login", "success")
	s.logger.Info("login successful",
		zap.String("user_id", sess.Identity.ID),
		zap.String("role", string(sess.Identity.Role)),
	)
	return sess, nil
}

func (s *AuthService) sessionFromLogin(data *auth.LoginData) (auth.Session, error) {
	if data.User != nil && data.User.ID != "" {
		identity := auth.IdentityFromProfile(*data.User)
		return auth.Session{Credential: data.Token, Identity: &identity}, nil
	}
	return s.sessionFromToken(data.Token)
}

func (s *AuthService) sessionFromToken(token string) (auth.Session, error) {
	claims, err := s.decoder.Decode(token)
	if err != nil {
		return auth.Session{}, err
	}
	if claims.Expired(s.now()) {
		return auth.Session{}, errors.New("backend issued an expired credential")
	}
	identity := auth.IdentityFromClaims(claims)
	return auth.Session{Credential: token, Identity: &identity}, nil
}

// ========== Registration ==========

// Register creates the account and signs the user in. When the backend does
// not hand back a credential, a login with the same email and password follows.
// The password confirmation is checked by the caller.
func (s *AuthService) Register(ctx context.Context, in auth.RegisterInput) (auth.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if role := auth.ParseRole(in.Role); !role.Valid() {
		return auth.Session{}, fmt.Errorf("%w: unknown role %q", xerrors.ErrInvalidInput, in.Role)
	}

	data, err := s.backend.Register(ctx, in)
	if err != nil {
		return auth.Session{}, s.fail("register", in.Email, err)
	}
	s.logger.Info("registration accepted", zap.String("user_id", data.ID), zap.String("role", data.Role))

	if data.Token == "" {
		return s.Login(ctx, in.Email, in.Password)
	}

	sess, err := s.sessionFromRegistration(data)
	if err != nil {
		return auth.Session{}, s.fail("register", in.Email, err)
	}
	if err := s.manager.Establish(ctx, sess, ReasonRegister); err != nil {
		return auth.Session{}, s.fail("register", in.Email, xerrors.Wrap(err, "persist session"))
	}

	s.metrics.AuthAttempt("register", "success")
	return sess, nil
}

func (s *AuthService) sessionFromRegistration(data *auth.RegisterData) (auth.Session, error) {
	if data.ID != "" {
		identity := auth.IdentityFromRegistration(*data)
		return auth.Session{Credential: data.Token, Identity: &identity}, nil
	}
	return s.sessionFromToken(data.Token)
}

// ========== Logout ==========

// Logout notifies the backend and always tears the local session down,
// whatever the backend said.
func (s *AuthService) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed, clearing local session anyway", zap.Error(err))
		s.metrics.AuthAttempt("logout", "backend_error")
	} else {
		s.metrics.AuthAttempt("logout", "success")
	}

	s.manager.Teardown(ctx, ReasonLogout)
	s.logger.Info("logged out")
}

// fail normalizes err into an AuthError and records the attempt.
func (s *AuthService) fail(op, email string, err error) *xerrors.AuthError {
	aerr := toAuthError(err)
	s.metrics.AuthAttempt(op, aerr.Kind.String())
	s.logger.Warn(op+" failed",
		zap.String("email", email),
		zap.String("kind", aerr.Kind.String()),
		zap.Int("status", aerr.Status),
		zap.Error(err),
	)
	return aerr
}

func toAuthError(err error) *xerrors.AuthError {
	if aerr, ok := xerrors.AsAuthError(err); ok {
		return aerr
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		aerr := xerrors.AuthErrorFromStatus(se.Status, se.Message)
		aerr.Err = err
		return aerr
	}

	return &xerrors.AuthError{Kind: xerrors.AuthenticationFailed, Err: err}
}

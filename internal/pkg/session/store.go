// internal/pkg/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lms-web/internal/domain/auth"
	xerrors "lms-web/internal/pkg/errors"

	"go.uber.org/zap"
)

// Store persists the current session as two keys, token and user.
type Store struct {
	backend Backend
	sealer  Sealer
	logger  *zap.Logger
}

func NewStore(backend Backend, sealer Sealer, logger *zap.Logger) *Store {
	if sealer == nil {
		sealer = NopSealer{}
	}
	return &Store{backend: backend, sealer: sealer, logger: logger}
}

// Sealer exposes the at-rest sealer used for every value.
func (s *Store) Sealer() Sealer { return s.sealer }

// Load reads the persisted session. Missing state yields an empty session.
// Unreadable or half-written state is cleared and also yields an empty session.
func (s *Store) Load(ctx context.Context) auth.Session {
	token, tokenErr := s.read(ctx, KeyToken)
	user, userErr := s.read(ctx, KeyUser)

	if errors.Is(tokenErr, ErrNotFound) && errors.Is(userErr, ErrNotFound) {
		return auth.Session{}
	}

	if err := backendFailure(tokenErr, userErr); err != nil {
		s.logger.Warn("session storage unavailable, treating as signed out", zap.Error(err))
		return auth.Session{}
	}

	sess, err := decodeRecord(token, tokenErr, user, userErr)
	if err != nil {
		s.logger.Warn("discarding corrupt session record", zap.Error(err))
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.Error("failed to clear corrupt session record", zap.Error(clearErr))
		}
		return auth.Session{}
	}
	return sess
}

// Save writes credential and identity in one commit. An empty session clears.
func (s *Store) Save(ctx context.Context, sess auth.Session) error {
	if sess.IsEmpty() {
		return s.Clear(ctx)
	}
	if !sess.Authenticated() {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "session must carry both credential and identity")
	}

	user, err := json.Marshal(sess.Identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	sealedToken, err := s.sealer.Seal(KeyToken, []byte(sess.Credential))
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	sealedUser, err := s.sealer.Seal(KeyUser, user)
	if err != nil {
		return fmt.Errorf("seal user: %w", err)
	}

	err = s.backend.Commit(ctx, map[string][]byte{
		KeyToken: sealedToken,
		KeyUser:  sealedUser,
	}, nil)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes both keys in one commit.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Commit(ctx, nil, []string{KeyToken, KeyUser}); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Credential returns the persisted credential of a complete session.
func (s *Store) Credential(ctx context.Context) (string, bool) {
	sess := s.Load(ctx)
	if !sess.Authenticated() {
		return "", false
	}
	return sess.Credential, true
}

// read fetches and unseals key. A value that fails to unseal is reported as corrupt.
func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.sealer.Open(key, raw)
	if err != nil {
		return nil, &corruptError{key: key, err: err}
	}
	return plain, nil
}

type corruptError struct {
	key string
	err error
}

func (e *corruptError) Error() string { return fmt.Sprintf("%s: %v", e.key, e.err) }
func (e *corruptError) Unwrap() error { return e.err }

// backendFailure returns the first error that is neither a miss nor corruption.
func backendFailure(errs ...error) error {
	for _, err := range errs {
		if err == nil || errors.Is(err, ErrNotFound) {
			continue
		}
		var ce *corruptError
		if errors.As(err, &ce) {
			continue
		}
		return err
	}
	return nil
}

func decodeRecord(token []byte, tokenErr error, user []byte, userErr error) (auth.Session, error) {
	if tokenErr != nil {
		return auth.Session{}, fmt.Errorf("token: %w", tokenErr)
	}
	if userErr != nil {
		return auth.Session{}, fmt.Errorf("user: %w", userErr)
	}
	if len(token) == 0 {
		return auth.Session{}, errors.New("token: empty")
	}

	var identity *auth.Identity
	if err := json.Unmarshal(user, &identity); err != nil {
		return auth.Session{}, fmt.Errorf("user: %w", err)
	}
	if identity == nil {
		return auth.Session{}, errors.New("user: null")
	}

	return auth.Session{Credential: string(token), Identity: identity}, nil
}

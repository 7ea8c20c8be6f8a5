package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// PersistentJar is the cookie jar of the backend client. The bootstrap cookie
// it receives is mirrored into the Backend so it survives a restart.
type PersistentJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	backend Backend
	sealer  Sealer
	name    string
	base    *url.URL
	logger  *zap.Logger
}

var _ http.CookieJar = (*PersistentJar)(nil)

// NewPersistentJar builds a jar for cookies scoped to base and re-seeds a
// previously persisted bootstrap cookie.
func NewPersistentJar(ctx context.Context, backend Backend, sealer Sealer, name string, base *url.URL, logger *zap.Logger) (*PersistentJar, error) {
	if sealer == nil {
		sealer = NopSealer{}
	}
	j := &PersistentJar{
		backend: backend,
		sealer:  sealer,
		name:    name,
		base:    base,
		logger:  logger,
	}
	if err := j.reset(); err != nil {
		return nil, err
	}

	if value, ok := j.Value(ctx); ok {
		j.jar.SetCookies(base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	}
	return j, nil
}

func (j *PersistentJar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.jar = jar
	return nil
}

// Name is the configured bootstrap cookie name.
func (j *PersistentJar) Name() string { return j.name }

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.jar.SetCookies(u, cookies)
	j.mu.Unlock()

	for _, c := range cookies {
		if c.Name != j.name {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		if expired(c) {
			err = j.backend.Commit(ctx, nil, []string{CookieKey(j.name)})
		} else {
			err = j.persist(ctx, c.Value)
		}
		cancel()

		if err != nil {
			j.logger.Warn("failed to persist bootstrap cookie", zap.String("cookie", j.name), zap.Error(err))
		}
	}
}

// Value returns the persisted bootstrap cookie.
func (j *PersistentJar) Value(ctx context.Context) (string, bool) {
	raw, err := j.backend.Get(ctx, CookieKey(j.name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			j.logger.Warn("failed to read bootstrap cookie", zap.Error(err))
		}
		return "", false
	}

	value, err := j.sealer.Open(CookieKey(j.name), raw)
	if err != nil || len(value) == 0 {
		return "", false
	}
	return string(value), true
}

// Set stores value as the bootstrap cookie, as if the backend had issued it.
func (j *PersistentJar) Set(ctx context.Context, value string) error {
	j.mu.Lock()
	j.jar.SetCookies(j.base, []*http.Cookie{{Name: j.name, Value: value, Path: "/"}})
	j.mu.Unlock()
	return j.persist(ctx, value)
}

// Clear drops the bootstrap cookie from the jar and from storage.
func (j *PersistentJar) Clear(ctx context.Context) error {
	j.mu.Lock()
	err := j.reset()
	j.mu.Unlock()
	if err != nil {
		return err
	}

	if err := j.backend.Commit(ctx, nil, []string{CookieKey(j.name)}); err != nil {
		return fmt.Errorf("clear bootstrap cookie: %w", err)
	}
	return nil
}

func (j *PersistentJar) persist(ctx context.Context, value string) error {
	sealed, err := j.sealer.Seal(CookieKey(j.name), []byte(value))
	if err != nil {
		return err
	}
	return j.backend.Commit(ctx, map[string][]byte{CookieKey(j.name): sealed}, nil)
}

func expired(c *http.Cookie) bool {
	if c.Value == "" || c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && c.Expires.Before(time.Now())
}

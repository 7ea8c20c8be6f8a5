package auth

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"lms-web/internal/domain/auth"
	"lms-web/internal/pkg/jwt"
	"lms-web/internal/pkg/session"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cookieName = "edukita_lms"

type fakeBackend struct {
	LoginFunc    func(ctx context.Context, req auth.LoginRequest) (*auth.LoginData, error)
	RegisterFunc func(ctx context.Context, in auth.RegisterInput) (*auth.RegisterData, error)
	LogoutFunc   func(ctx context.Context) error
	MeFunc       func(ctx context.Context, credential string) (*auth.ProfileResponse, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeBackend) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginData, error) {
	f.record("login")
	return f.LoginFunc(ctx, req)
}

func (f *fakeBackend) Register(ctx context.Context, in auth.RegisterInput) (*auth.RegisterData, error) {
	f.record("register")
	return f.RegisterFunc(ctx, in)
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.record("logout")
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx)
}

func (f *fakeBackend) Me(ctx context.Context, credential string) (*auth.ProfileResponse, error) {
	f.record("me")
	return f.MeFunc(ctx, credential)
}

type harness struct {
	backend *fakeBackend
	storage *session.MemoryBackend
	store   *session.Store
	jar     *session.PersistentJar
	manager *Manager
	svc     *AuthService
}

func newHarness(t *testing.T, opts ResolverOptions) *harness {
	t.Helper()
	logger := zap.NewNop()

	storage := session.NewMemoryBackend()
	store := session.NewStore(storage, nil, logger)

	base, err := url.Parse("http://lms.example.com/api/v1")
	require.NoError(t, err)
	jar, err := session.NewPersistentJar(context.Background(), storage, nil, cookieName, base, logger)
	require.NoError(t, err)

	backend := &fakeBackend{}
	decoder := jwt.NewDecoder()
	manager := NewManager(store, jar, nil, logger)
	resolver := NewResolver(store, jar, backend, decoder, opts, nil, logger)

	return &harness{
		backend: backend,
		storage: storage,
		store:   store,
		jar:     jar,
		manager: manager,
		svc:     NewAuthService(backend, manager, resolver, decoder, nil, logger),
	}
}

func mintToken(t *testing.T, sub jwt.Subject) string {
	t.Helper()
	token, err := jwt.NewGenerator([]byte("test-secret"), "lms", time.Hour).Generate(sub)
	require.NoError(t, err)
	return token
}

func mintExpiredToken(t *testing.T, sub jwt.Subject) string {
	t.Helper()
	token, err := jwt.NewGenerator([]byte("test-secret"), "lms", time.Hour).GenerateExpired(sub)
	require.NoError(t, err)
	return token
}

func storedIdentity() *auth.Identity {
	return &auth.Identity{
		ID:        "u-1",
		FirstName: "Budi",
		LastName:  "Santoso",
		Email:     "budi@example.com",
		Role:      auth.RoleTeacher,
		IsActive:  true,
		LastLogin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lms-web/internal/domain/auth"
	"lms-web/internal/pkg/jwt"
	"lms-web/internal/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RevalidationRefreshesProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})
	require.NoError(t, h.store.Save(ctx, auth.Session{Credential: "abc", Identity: storedIdentity()}))

	h.backend.MeFunc = func(_ context.Context, credential string) (*auth.ProfileResponse, error) {
		assert.Equal(t, "abc", credential)
		return &auth.ProfileResponse{
			ID:        "u-1",
			FirstName: "Budi",
			LastName:  "Santoso",
			Email:     "budi@example.com",
			Role:      auth.RoleField{Name: auth.RoleTeacher},
			IsActive:  true,
			LastLogin: "2024-06-15T09:30:00Z",
		}, nil
	}

	h.svc.Start(ctx)

	want := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	sess := h.svc.Session()
	require.True(t, sess.Authenticated())
	assert.Equal(t, "abc", sess.Credential)
	assert.Equal(t, want, sess.Identity.LastLogin)

	persisted := h.store.Load(ctx)
	assert.Equal(t, want, persisted.Identity.LastLogin)
}

func TestResolve_RevalidationKeepsRoleForEmptyRoleObject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})
	admin := storedIdentity()
	admin.Role = auth.RoleAdmin
	require.NoError(t, h.store.Save(ctx, auth.Session{Credential: "abc", Identity: admin}))

	body := []byte(`{
		"id": "u-1",
		"first_name": "Budi",
		"last_name": "Santoso",
		"email": "budi@example.com",
		"role": {},
		"is_active": true,
		"last_login": "2024-06-15T09:30:00Z"
	}`)
	h.backend.MeFunc = func(context.Context, string) (*auth.ProfileResponse, error) {
		var profile auth.ProfileResponse
		if err := json.Unmarshal(body, &profile); err != nil {
			return nil, err
		}
		return &profile, nil
	}

	h.svc.Start(ctx)

	sess := h.svc.Session()
	require.True(t, sess.Authenticated())
	assert.Equal(t, auth.RoleAdmin, sess.Identity.Role)
	assert.True(t, sess.HasRole(auth.RoleAdmin))
	assert.Equal(t, auth.RoleAdmin, h.store.Load(ctx).Identity.Role)
}

func TestResolve_CookieBootstrapAsStudent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})

	token := mintToken(t, jwt.Subject{ID: "s-7", Email: "siti@example.com", FirstName: "Siti", Role: "student"})
	require.NoError(t, h.jar.Set(ctx, token))

	h.svc.Start(ctx)

	state := h.svc.State()
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, auth.RoleStudent, state.Identity.Role)
	assert.Equal(t, "s-7", state.Identity.ID)

	persisted := h.store.Load(ctx)
	require.True(t, persisted.Authenticated())
	assert.Equal(t, token, persisted.Credential)
	assert.Equal(t, "siti@example.com", persisted.Identity.Email)
	assert.NotContains(t, h.backend.calls, "me")
}

func TestResolve_NothingYieldsEmptyAfterLoading(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})

	before := h.svc.State()
	assert.True(t, before.IsLoading)
	assert.False(t, before.IsAuthenticated)

	select {
	case <-h.manager.Ready():
		t.Fatal("ready before resolve")
	default:
	}

	h.svc.Start(ctx)

	after := h.svc.State()
	assert.False(t, after.IsLoading)
	assert.False(t, after.IsAuthenticated)
	assert.Nil(t, after.Identity)

	select {
	case <-h.manager.Ready():
	default:
		t.Fatal("ready not closed after resolve")
	}
}

func TestResolve_RevalidationFailureFallsThroughToCookie(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})
	require.NoError(t, h.store.Save(ctx, auth.Session{Credential: "stale", Identity: storedIdentity()}))

	token := mintToken(t, jwt.Subject{ID: "s-8", Role: "student"})
	require.NoError(t, h.jar.Set(ctx, token))

	h.backend.MeFunc = func(context.Context, string) (*auth.ProfileResponse, error) {
		return nil, errors.New("401")
	}

	h.svc.Start(ctx)

	sess := h.svc.Session()
	require.True(t, sess.Authenticated())
	assert.Equal(t, token, sess.Credential)
	assert.Equal(t, "s-8", h.store.Load(ctx).Identity.ID)
}

func TestResolve_CookieWithRejectedCredentialIsSkipped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})

	token := mintToken(t, jwt.Subject{ID: "u-1", Role: "teacher"})
	require.NoError(t, h.store.Save(ctx, auth.Session{Credential: token, Identity: storedIdentity()}))
	require.NoError(t, h.jar.Set(ctx, token))

	h.backend.MeFunc = func(context.Context, string) (*auth.ProfileResponse, error) {
		return nil, errors.New("unauthorized")
	}

	h.svc.Start(ctx)

	assert.False(t, h.svc.State().IsAuthenticated)
	assert.True(t, h.store.Load(ctx).IsEmpty())
	_, ok := h.jar.Value(ctx)
	assert.False(t, ok)
}

func TestResolve_UndecodableCookieFallsThrough(t *testing.T) {
	tests := []struct {
		name   string
		cookie func(t *testing.T) string
	}{
		{"garbage", func(*testing.T) string { return "not-a-token" }},
		{"bad segments", func(*testing.T) string { return "a.b.c" }},
		{"expired", func(t *testing.T) string { return mintExpiredToken(t, jwt.Subject{ID: "s-1", Role: "student"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, ResolverOptions{Revalidate: true})
			require.NoError(t, h.jar.Set(ctx, tt.cookie(t)))

			h.svc.Start(ctx)

			assert.False(t, h.svc.State().IsAuthenticated)
			assert.False(t, h.svc.State().IsLoading)
			assert.True(t, h.store.Load(ctx).IsEmpty())
			_, ok := h.jar.Value(ctx)
			assert.False(t, ok)
		})
	}
}

func TestResolve_WithoutRevalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("opaque credential is trusted", func(t *testing.T) {
		h := newHarness(t, ResolverOptions{})
		want := auth.Session{Credential: "abc", Identity: storedIdentity()}
		require.NoError(t, h.store.Save(ctx, want))

		h.svc.Start(ctx)
		assert.Equal(t, want, h.svc.Session())
		assert.Empty(t, h.backend.calls)
	})

	t.Run("expired credential is dropped", func(t *testing.T) {
		h := newHarness(t, ResolverOptions{})
		token := mintExpiredToken(t, jwt.Subject{ID: "u-1", Role: "teacher"})
		require.NoError(t, h.store.Save(ctx, auth.Session{Credential: token, Identity: storedIdentity()}))

		h.svc.Start(ctx)
		assert.False(t, h.svc.State().IsAuthenticated)
		assert.True(t, h.store.Load(ctx).IsEmpty())
	})
}

func TestResolve_CorruptStorageFallsThrough(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})
	require.NoError(t, h.storage.Commit(ctx, map[string][]byte{
		session.KeyToken: []byte("abc"),
		session.KeyUser:  []byte("{broken"),
	}, nil))

	h.svc.Start(ctx)

	assert.False(t, h.svc.State().IsAuthenticated)
	assert.NotContains(t, h.backend.calls, "me")
}

func TestStart_RunsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ResolverOptions{Revalidate: true})
	require.NoError(t, h.store.Save(ctx, auth.Session{Credential: "abc", Identity: storedIdentity()}))

	h.backend.MeFunc = func(context.Context, string) (*auth.ProfileResponse, error) {
		return &auth.ProfileResponse{ID: "u-1", Role: auth.RoleField{Name: auth.RoleTeacher}}, nil
	}

	h.svc.Start(ctx)
	h.svc.Start(ctx)

	assert.Equal(t, []string{"me"}, h.backend.calls)
}

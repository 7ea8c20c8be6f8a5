package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lms-web/internal/config"
	"lms-web/internal/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLMS struct {
	mu       sync.Mutex
	role     string
	revoked  bool
	lastAuth string
}

func (f *fakeLMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/user/login":
		json.NewEncoder(w).Encode(map[string]any{
			"status":  200,
			"message": "ok",
			"data": map[string]any{
				"token": "tok-1",
				"user": map[string]any{
					"id":         "u-1",
					"first_name": "Budi",
					"last_name":  "Santoso",
					"email":      "budi@example.com",
					"role":       f.role,
					"is_active":  true,
				},
			},
		})
	case "/api/v1/user/logout":
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "message": "bye"})
	case "/api/v1/lms/assignments":
		f.lastAuth = r.Header.Get("Authorization")
		if f.revoked {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"status":200,"data":[{"id":"a-1"}]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestServer(t *testing.T, lms *fakeLMS) *Server {
	t.Helper()

	backend := httptest.NewServer(lms)
	t.Cleanup(backend.Close)

	cfg := config.AppConfig{
		Env:               "local",
		BackendURL:        backend.URL,
		BackendTimeout:    5 * time.Second,
		CookieName:        "edukita_lms",
		SessionStore:      config.StoreMemory,
		RevalidateOnStart: true,
	}

	ctx := context.Background()
	s := NewServer(cfg, zap.NewNop())
	require.NoError(t, s.Build(ctx, session.NewMemoryBackend()))
	s.AuthService().Start(ctx)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

type sessionBody struct {
	Success bool `json:"success"`
	Data    struct {
		IsLoading       bool `json:"is_loading"`
		IsAuthenticated bool `json:"is_authenticated"`
		Identity        *struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"identity"`
	} `json:"data"`
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	var out sessionBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestServer_LoginFlow(t *testing.T) {
	lms := &fakeLMS{role: "teacher"}
	s := newTestServer(t, lms)

	w := do(s, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth?redirect=%2Fdashboard", w.Header().Get("Location"))

	w = do(s, http.MethodGet, "/api/lms/assignments", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(s, http.MethodPost, "/api/user/login", `{"email":"budi@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decodeSession(t, w)
	assert.True(t, state.Data.IsAuthenticated)
	require.NotNil(t, state.Data.Identity)
	assert.Equal(t, "teacher", state.Data.Identity.Role)

	w = do(s, http.MethodGet, "/api/lms/assignments", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"a-1"`)
	assert.Equal(t, "Bearer tok-1", lms.lastAuth)

	w = do(s, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome back, Budi.")

	w = do(s, http.MethodGet, "/assignments/new", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodPost, "/api/user/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/api/session", "")
	assert.False(t, decodeSession(t, w).Data.IsAuthenticated)
}

func TestServer_StudentCannotCreateAssignments(t *testing.T) {
	s := newTestServer(t, &fakeLMS{role: "student"})

	w := do(s, http.MethodPost, "/api/user/login", `{"email":"siti@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/assignments/new", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(s, http.MethodGet, "/submissions", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_BackendRejectionSignsOut(t *testing.T) {
	lms := &fakeLMS{role: "teacher"}
	s := newTestServer(t, lms)

	w := do(s, http.MethodPost, "/api/user/login", `{"email":"budi@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	lms.mu.Lock()
	lms.revoked = true
	lms.mu.Unlock()

	w = do(s, http.MethodGet, "/api/lms/assignments", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session expired")

	w = do(s, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeLMS{role: "teacher"})

	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	do(s, http.MethodPost, "/api/user/login", `{"email":"budi@example.com","password":"secret"}`)

	w = do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lms_web_auth_attempts_total")
	assert.Contains(t, w.Body.String(), "lms_web_session_authenticated 1")
}

func TestServer_AuthPageRedirectsSignedInUser(t *testing.T) {
	s := newTestServer(t, &fakeLMS{role: "teacher"})

	w := do(s, http.MethodGet, "/auth?redirect=%2Fassignments", "")
	assert.Equal(t, http.StatusOK, w.Code)

	do(s, http.MethodPost, "/api/user/login", `{"email":"budi@example.com","password":"secret"}`)

	w = do(s, http.MethodGet, "/auth?redirect=%2Fassignments", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/assignments", w.Header().Get("Location"))
}

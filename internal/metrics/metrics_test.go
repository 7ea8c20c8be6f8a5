package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New(nil)

	m.AuthAttempt("login", "success")
	m.AuthAttempt("login", "invalid_credentials")
	m.AuthAttempt("login", "success")
	m.Teardown("logout")
	m.GuardDecision(false)
	m.Resolved("cookie")
	m.SetAuthenticated(true)
	m.BackendRequest("GET", "200", 30*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `lms_web_auth_attempts_total{operation="login",outcome="success"} 2`)
	assert.Contains(t, body, `lms_web_auth_attempts_total{operation="login",outcome="invalid_credentials"} 1`)
	assert.Contains(t, body, `lms_web_session_teardowns_total{reason="logout"} 1`)
	assert.Contains(t, body, `lms_web_guard_decisions_total{decision="deny"} 1`)
	assert.Contains(t, body, `lms_web_resolve_total{source="cookie"} 1`)
	assert.Contains(t, body, "lms_web_session_authenticated 1")
	assert.Contains(t, body, `lms_web_backend_request_duration_seconds_count{method="GET",status="200"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AuthAttempt("login", "success")
		m.Teardown("logout")
		m.GuardDecision(true)
		m.Resolved("empty")
		m.SetAuthenticated(false)
		m.BackendRequest("GET", "500", time.Second)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

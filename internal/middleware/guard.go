// internal/middleware/guard.go
package middleware

import (
	"net/http"
	"net/url"

	"lms-web/internal/domain/auth"
	"lms-web/internal/metrics"
	"lms-web/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionKey is the gin context key holding the admitted session.
const SessionKey = "session"

// EntryPath is where unauthenticated page requests are sent.
const EntryPath = "/auth"

// SessionSource is the published session and its startup gate.
type SessionSource interface {
	Snapshot() auth.Session
	Ready() <-chan struct{}
}

// IsAllowed reports whether a protected view may render for s.
func IsAllowed(s auth.Session) bool {
	return s.Authenticated()
}

// Mode picks how a denied request is answered.
type Mode int

const (
	// Page requests are redirected to the entry point.
	Page Mode = iota
	// API requests get a 401 envelope.
	API
)

type Guard struct {
	sessions SessionSource
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewGuard(sessions SessionSource, m *metrics.Metrics, logger *zap.Logger) *Guard {
	return &Guard{sessions: sessions, metrics: m, logger: logger}
}

// RequireSession waits for startup resolution to settle, then admits only
// authenticated sessions.
func (g *Guard) RequireSession(mode Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case <-g.sessions.Ready():
		case <-c.Request.Context().Done():
			response.Error(c, http.StatusServiceUnavailable, "session is still loading", nil)
			return
		}

		sess := g.sessions.Snapshot()
		allowed := IsAllowed(sess)
		g.metrics.GuardDecision(allowed)

		if !allowed {
			g.logger.Debug("guard denied request", zap.String("path", c.Request.URL.Path))
			deny(c, mode)
			return
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// RequireRole admits sessions holding one of roles. Use after RequireSession.
func (g *Guard) RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			sess = g.sessions.Snapshot()
		}

		if !sess.HasRole(roles...) {
			response.Forbidden(c, "insufficient permissions", map[string]any{
				"required_roles": roles,
			})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session admitted by RequireSession.
func SessionFrom(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return auth.Session{}, false
	}
	sess, ok := v.(auth.Session)
	return sess, ok
}

// RedirectTarget builds the entry point URL that returns to path after login.
func RedirectTarget(path string) string {
	return EntryPath + "?redirect=" + url.QueryEscape(path)
}

func deny(c *gin.Context, mode Mode) {
	if mode == API {
		response.Unauthorized(c, "authentication required")
		return
	}
	c.Redirect(http.StatusFound, RedirectTarget(c.Request.URL.RequestURI()))
	c.Abort()
}

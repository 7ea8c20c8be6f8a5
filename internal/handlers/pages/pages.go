// internal/handlers/pages/pages.go
package pages

import (
	"html/template"
	"net/http"
	"strings"

	"lms-web/internal/domain/auth"
	"lms-web/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

const layout = `{{define "layout"}}<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}} | LMS</title></head>
<body>
{{if .User}}<header>Signed in as {{.User.DisplayName}} ({{.User.Role}}) <form method="post" action="/api/user/logout"><button>Log out</button></form></header>{{end}}
<main><h1>{{.Title}}</h1>{{template "body" .}}</main>
</body></html>{{end}}`

var bodies = map[string]string{
	"home": `{{define "body"}}<ul>
<li><a href="/assignments">Assignments</a></li>
<li><a href="/submissions">Submissions</a></li>
<li><a href="/dashboard">Dashboard</a></li>
</ul>{{end}}`,
	"dashboard":      `{{define "body"}}<p>Welcome back, {{.User.FirstName}}.</p>{{end}}`,
	"assignments":    `{{define "body"}}<div id="assignments" data-src="/api/lms/assignments"></div>{{if eq .User.Role "teacher"}}<a href="/assignments/new">New assignment</a>{{end}}{{end}}`,
	"assignment_new": `{{define "body"}}<form id="assignment" data-action="/api/lms/assignments"></form>{{end}}`,
	"submissions":    `{{define "body"}}<div id="submissions" data-src="/api/lms/submissions/users/{{.User.ID}}"></div>{{end}}`,
	"auth":           `{{define "body"}}<form id="auth" data-login="/api/user/login" data-register="/api/user/register" data-redirect="{{.Redirect}}"></form>{{end}}`,
}

// Renderer holds one template per page, each with its own body.
type Renderer map[string]*template.Template

var _ render.HTMLRender = Renderer(nil)

// NewRenderer parses every page.
func NewRenderer() Renderer {
	r := make(Renderer, len(bodies))
	for name, body := range bodies {
		t := template.Must(template.New(name).Parse(layout))
		r[name] = template.Must(t.Parse(body))
	}
	return r
}

func (r Renderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r[name], Name: "layout", Data: data}
}

type view struct {
	Title    string
	User     *auth.Identity
	Redirect string
}

type SessionReader interface {
	Snapshot() auth.Session
	Ready() <-chan struct{}
}

type PageHandler struct {
	sessions SessionReader
}

func NewPageHandler(sessions SessionReader) *PageHandler {
	return &PageHandler{sessions: sessions}
}

// Auth is the public entry point. A signed-in user is sent on to the redirect target.
func (h *PageHandler) Auth(c *gin.Context) {
	target := safeRedirect(c.Query("redirect"))

	select {
	case <-h.sessions.Ready():
		if middleware.IsAllowed(h.sessions.Snapshot()) {
			c.Redirect(http.StatusFound, target)
			return
		}
	case <-c.Request.Context().Done():
		return
	}

	c.HTML(http.StatusOK, "auth", view{Title: "Sign in", Redirect: target})
}

func (h *PageHandler) Home(c *gin.Context)        { h.page(c, "home", "Welcome to LMS Dashboard") }
func (h *PageHandler) Dashboard(c *gin.Context)   { h.page(c, "dashboard", "Dashboard") }
func (h *PageHandler) Assignments(c *gin.Context) { h.page(c, "assignments", "Assignments") }
func (h *PageHandler) NewAssignment(c *gin.Context) {
	h.page(c, "assignment_new", "New assignment")
}
func (h *PageHandler) Submissions(c *gin.Context) { h.page(c, "submissions", "Submissions") }

// page is only reached behind the guard.
func (h *PageHandler) page(c *gin.Context, name, title string) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		sess = h.sessions.Snapshot()
	}
	c.HTML(http.StatusOK, name, view{Title: title, User: sess.Identity})
}

// safeRedirect keeps redirects on this host.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

// internal/app/router.go
package app

import (
	"net/http"

	"lms-web/internal/domain/auth"
	authHandler "lms-web/internal/handlers/auth"
	lmsHandler "lms-web/internal/handlers/lms"
	pageHandler "lms-web/internal/handlers/pages"
	wsHandler "lms-web/internal/handlers/websocket"
	"lms-web/internal/metrics"
	"lms-web/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler  *authHandler.AuthHandler
	PageHandler  *pageHandler.PageHandler
	ProxyHandler *lmsHandler.ProxyHandler
	WSHandler    *wsHandler.WebSocketHandler
	Guard        *middleware.Guard
	Metrics      *metrics.Metrics
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health & Metrics ====================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws/session", h.WSHandler.HandleConnection)
	r.GET("/ws/stats", h.WSHandler.GetStats)

	// ==================== Session API ====================
	api := r.Group("/api")
	api.GET("/session", h.AuthHandler.Session)

	user := api.Group("/user")
	{
		user.POST("/login", h.AuthHandler.Login)
		user.POST("/register", h.AuthHandler.Register)
		user.POST("/logout", h.AuthHandler.Logout)
	}

	// ==================== LMS pass-through ====================
	lms := api.Group("/lms")
	lms.Use(h.Guard.RequireSession(middleware.API))
	{
		lms.Any("/*path", h.ProxyHandler.Forward)
	}

	// ==================== Pages ====================
	r.GET(middleware.EntryPath, h.PageHandler.Auth)

	pages := r.Group("")
	pages.Use(h.Guard.RequireSession(middleware.Page))
	{
		pages.GET("/", h.PageHandler.Home)
		pages.GET("/dashboard", h.PageHandler.Dashboard)
		pages.GET("/assignments", h.PageHandler.Assignments)
		pages.GET("/submissions", h.PageHandler.Submissions)
		pages.GET("/assignments/new", h.Guard.RequireRole(auth.RoleTeacher), h.PageHandler.NewAssignment)
	}
}

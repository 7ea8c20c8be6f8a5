// internal/handlers/websocket/websocket.go
package websocket

import (
	"net/http"
	"net/url"
	"time"

	"lms-web/internal/pkg/response"
	ws "lms-web/internal/websocket"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader gorillaws.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts same-origin upgrades plus the listed origins.
func NewWebSocketHandler(hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
		logger: logger,
	}
}

// HandleConnection upgrades GET /ws/session.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Warn("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	if err := h.hub.Connect(conn); err != nil {
		h.logger.Warn("websocket connect rejected", zap.Error(err))
	}
}

// GetStats reports connection statistics.
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "WebSocket stats", gin.H{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now().UTC(),
	})
}

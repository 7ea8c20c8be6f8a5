// internal/handlers/lms/proxy.go
package lms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lms-web/internal/metrics"
	xerrors "lms-web/internal/pkg/errors"
	"lms-web/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Forwarder sends an authorized request to the backend.
type Forwarder interface {
	Forward(ctx context.Context, method, path string, query url.Values, header http.Header, body io.Reader) (*http.Response, error)
}

// ProxyHandler passes /api/lms/* through to the backend's /lms/* routes.
type ProxyHandler struct {
	backend Forwarder
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewProxyHandler(backend Forwarder, m *metrics.Metrics, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{backend: backend, metrics: m, logger: logger}
}

func (h *ProxyHandler) Forward(c *gin.Context) {
	path := "/lms/" + strings.TrimLeft(c.Param("path"), "/")
	start := time.Now()

	resp, err := h.backend.Forward(c.Request.Context(), c.Request.Method, path, c.Request.URL.Query(), c.Request.Header, c.Request.Body)
	if err != nil {
		h.metrics.BackendRequest(c.Request.Method, "error", time.Since(start))
		if errors.Is(err, xerrors.ErrAuthorizationRejected) {
			response.FromError(c, err)
			return
		}
		h.logger.Error("lms forward failed", zap.String("path", path), zap.Error(err))
		response.Error(c, http.StatusBadGateway, "backend unavailable", nil)
		return
	}
	defer resp.Body.Close()

	h.metrics.BackendRequest(c.Request.Method, strconv.Itoa(resp.StatusCode), time.Since(start))

	extra := map[string]string{}
	if loc := resp.Header.Get("Location"); loc != "" {
		extra["Location"] = loc
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, extra)
}

// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lms-web/internal/client"
	"lms-web/internal/config"
	authHandler "lms-web/internal/handlers/auth"
	lmsHandler "lms-web/internal/handlers/lms"
	pageHandler "lms-web/internal/handlers/pages"
	wsHandler "lms-web/internal/handlers/websocket"
	"lms-web/internal/metrics"
	"lms-web/internal/middleware"
	"lms-web/internal/pkg/jwt"
	"lms-web/internal/pkg/session"
	authUsecase "lms-web/internal/service/auth"
	"lms-web/internal/websocket"
	wsHandlers "lms-web/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	backend     session.Backend
	authService *authUsecase.AuthService
	hub         *websocket.Hub
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// AuthService is available once Build has run.
func (s *Server) AuthService() *authUsecase.AuthService {
	return s.authService
}

// Build wires every component onto backend. It does not start anything.
func (s *Server) Build(ctx context.Context, backend session.Backend) error {
	s.backend = backend

	// ----- Session storage -----
	store, err := NewSessionStore(s.cfg, backend, s.logger)
	if err != nil {
		return err
	}

	base, err := url.Parse(s.cfg.APIBaseURL())
	if err != nil {
		return fmt.Errorf("LMS_BACKEND_URL: %w", err)
	}
	jar, err := session.NewPersistentJar(ctx, backend, store.Sealer(), s.cfg.CookieName, base, s.logger)
	if err != nil {
		return fmt.Errorf("restore auth cookie: %w", err)
	}

	// ----- Metrics -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// ----- Session manager & backend client -----
	manager := authUsecase.NewManager(store, jar, m, s.logger)

	lmsClient := client.New(client.Options{
		BaseURL:   s.cfg.APIBaseURL(),
		Timeout:   s.cfg.BackendTimeout,
		Transport: client.NewAuthorizer(nil, manager, manager, s.logger),
		Jar:       jar,
	}, s.logger)

	// ----- Services -----
	decoder := jwt.NewDecoder()
	resolver := authUsecase.NewResolver(
		store,
		jar,
		lmsClient,
		decoder,
		authUsecase.ResolverOptions{Revalidate: s.cfg.RevalidateOnStart},
		m,
		s.logger,
	)
	s.authService = authUsecase.NewAuthService(lmsClient, manager, resolver, decoder, m, s.logger)

	// ----- WebSocket Hub -----
	s.hub = websocket.NewHub(manager, s.logger)
	s.hub.RegisterHandler(wsHandlers.NewSessionStateHandler(manager))
	manager.Subscribe(func(t authUsecase.Transition) {
		s.hub.Publish(t.Reason, t.State)
	})

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:  authHandler.NewAuthHandler(s.authService, s.logger),
		PageHandler:  pageHandler.NewPageHandler(manager),
		ProxyHandler: lmsHandler.NewProxyHandler(lmsClient, m, s.logger),
		WSHandler:    wsHandler.NewWebSocketHandler(s.hub, s.cfg.CORSOrigins, s.logger),
		Guard:        middleware.NewGuard(manager, m, s.logger),
		Metrics:      m,
	}

	// ----- Middlewares -----
	s.engine.HTMLRender = pageHandler.NewRenderer()
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.RequestLogger(s.logger),
		middleware.CORS(s.cfg.CORSOrigins),
	)

	SetupRouter(s.engine, handlers)
	return nil
}

// Run starts the hub, resolves the startup session in the background and
// serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.authService == nil {
		return errors.New("server has not been built")
	}

	go s.hub.Run(ctx)
	go s.authService.Start(ctx)

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

// Close releases the session storage.
func (s *Server) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

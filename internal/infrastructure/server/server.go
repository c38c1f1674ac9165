package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/webterm/internal/api/http"
	"github.com/GriffinCanCode/webterm/internal/api/middleware"
	"github.com/GriffinCanCode/webterm/internal/api/static"
	"github.com/GriffinCanCode/webterm/internal/api/ws"
	"github.com/GriffinCanCode/webterm/internal/domain/session"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/tracing"
)

const readHeaderTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	registry   *session.Registry
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing webterm server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("shell", cfg.Terminal.Shell),
		zap.String("term_path", cfg.WebSocket.Path),
	)

	metrics := monitoring.NewMetrics()
	registry := session.NewRegistry()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.Logger(logger.Named("http").Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSConfigForOrigins(cfg.WebSocket.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))

		if rps := cfg.RateLimit.GlobalRequestsPerSecond; rps > 0 {
			burst := cfg.RateLimit.GlobalBurst
			if burst == 0 {
				burst = rps
			}
			logger.Info("Global rate limiting enabled", zap.Int("rps", rps), zap.Int("burst", burst))
			router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: rps,
				Burst:             burst,
			}))
		}
	}

	handlers := apihttp.NewHandlers(registry, metrics)
	wsHandler := ws.NewHandler(ws.OptionsFromConfig(cfg), registry, metrics, logger)

	// Register routes
	router.GET(cfg.WebSocket.Path, wsHandler.HandleConnection)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/json", handlers.Stats)
	if cfg.Server.SessionsAPI {
		router.GET("/api/sessions", handlers.ListSessions)
		router.GET("/api/sessions/:id", handlers.GetSession)
	}

	// Everything else is the browser client
	assets, source := static.Resolve(cfg.Server.StaticDir)
	logger.Info("Serving static files",
		zap.String("source", string(source)),
		zap.String("dir", cfg.Server.StaticDir),
	)
	staticHandler := gin.WrapH(static.Handler(assets))
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		staticHandler(c)
	})

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		registry: registry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the live session registry
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Run listens on the configured address and serves until Shutdown
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	s.logger.Info(fmt.Sprintf("http://localhost:%s", s.config.Server.Port))

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, ends every live session and waits
// for both until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...", zap.Int("sessions", s.registry.Len()))

	// upgraded connections are hijacked, so http.Server.Shutdown does not
	// wait for them; the registry does
	httpErr := s.httpServer.Shutdown(ctx)
	sessErr := s.registry.CloseAll(ctx)

	if sessErr != nil {
		s.logger.Warn("Sessions still open at shutdown deadline",
			zap.Int("sessions", s.registry.Len()),
			zap.Error(sessErr),
		)
	}
	if httpErr != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(httpErr))
	}

	s.metrics.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(httpErr, sessErr)
}

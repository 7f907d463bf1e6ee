// Package server exposes the interpreter over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cmdrelay/internal/assistant"
	"cmdrelay/internal/interpreter"
	"cmdrelay/internal/logging"
	"cmdrelay/internal/observability"
	"cmdrelay/internal/server/handlers"
	"cmdrelay/internal/server/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Config configures the HTTP server.
type Config struct {
	Addr           string
	EnableCORS     bool
	AllowedOrigins []string // empty allows every origin
	Debug          bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownGrace  time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		EnableCORS:    true,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  2 * time.Minute,
		ShutdownGrace: 5 * time.Second,
	}
}

// Server serves the interpreter API. Interpreter access is serialised.
type Server struct {
	mu         sync.Mutex
	interp     *interpreter.Interpreter
	assistant  *assistant.Assistant
	metrics    *observability.MetricsCollector
	tracer     *observability.TracerProvider
	logger     logging.Logger
	engine     *gin.Engine
	httpServer *http.Server
	grace      time.Duration
	startTime  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAssistant enables POST /v1/chat.
func WithAssistant(a *assistant.Assistant) Option {
	return func(s *Server) { s.assistant = a }
}

// WithMetrics exposes GET /metrics when the collector is enabled.
func WithMetrics(m *observability.MetricsCollector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithTracer records a span per request.
func WithTracer(tp *observability.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp }
}

func WithLogger(logger logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(logger) }
}

// New builds a server around interp.
func New(cfg Config, interp *interpreter.Interpreter, opts ...Option) (*Server, error) {
	if interp == nil {
		return nil, errors.New("server: interpreter is required")
	}
	if cfg.Addr == "" {
		return nil, errors.New("server: address is required")
	}
	if !cfg.Debug && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		interp:    interp,
		logger:    logging.Nop(),
		grace:     cfg.ShutdownGrace,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.grace <= 0 {
		s.grace = DefaultConfig().ShutdownGrace
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SessionMiddleware())
	engine.Use(middleware.ObservabilityMiddleware(s.tracer, s.logger))
	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		if len(cfg.AllowedOrigins) > 0 {
			corsConfig.AllowOrigins = cfg.AllowedOrigins
		} else {
			corsConfig.AllowAllOrigins = true
		}
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.SessionHeader}
		engine.Use(cors.New(corsConfig))
	}
	s.engine = engine
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	processHandler := handlers.NewProcessHandler(&s.mu, s.interp, s.logger)
	chatHandler := handlers.NewChatHandler(&s.mu, s.assistant)

	s.engine.GET("/healthz", s.handleHealth)
	if s.metrics.Enabled() {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/v1")
	api.Use(middleware.JSONMiddleware())
	{
		api.GET("/commands", processHandler.ListCommands)
		api.GET("/prompt", processHandler.Prompt)
		api.POST("/process", processHandler.Process)
		api.POST("/chat", chatHandler.Chat)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		s.logger.Info("Server stopped")
		return nil
	})
	return g.Wait()
}

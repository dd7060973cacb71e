// Package web serves the lead generation UI: two HTML pages backed by the
// pipeline plus a JSON API mirroring them, with spreadsheet export of the
// session's accumulated results.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FranksOps/prospect/internal/config"
	"github.com/FranksOps/prospect/internal/pipeline"
	"github.com/FranksOps/prospect/internal/storage"
)

// LeadService is the slice of the pipeline the web layer consumes.
type LeadService interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Batch, error)
	Lookup(ctx context.Context, name string) (*storage.Company, error)
}

// Config wires the web server.
type Config struct {
	// Addr is the listen address. Empty selects ":8080".
	Addr string
	// Status tells the UI which integrations are configured.
	Status config.Status
	// Service runs searches and lookups. Required.
	Service LeadService
	Logger  *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	addr    string
	status  config.Status
	svc     LeadService
	logger  *slog.Logger
	engine  *gin.Engine
	session *session
}

// New validates cfg and builds the server with its routes registered.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("lead service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(cfg.Logger))
	engine.SetHTMLTemplate(pageTemplates())

	s := &Server{
		addr:    cfg.Addr,
		status:  cfg.Status,
		svc:     cfg.Service,
		logger:  cfg.Logger,
		engine:  engine,
		session: newSession(),
	}
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/search", s.handleSearchForm)
	s.engine.GET("/company", s.handleCompanyPage)
	s.engine.POST("/company", s.handleCompanyForm)

	api := s.engine.Group("/api/v1")
	{
		api.POST("/search", s.handleAPISearch)
		api.POST("/company", s.handleAPICompany)
		api.GET("/status", s.handleAPIStatus)
		api.GET("/export", s.handleExport)
	}
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully so in-flight
// searches finish before the process exits.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("web server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}
	return nil
}

// requestLogger reports each request through slog, keeping the access log in
// the same stream and format as the rest of the application.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

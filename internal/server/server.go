// Package server exposes the question pipeline over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/validation"
	"market-mentor/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
)

//go:embed templates/*.html
var templateFS embed.FS

// Asker runs one question through the pipeline.
type Asker interface {
	Process(ctx context.Context, question string) pipeline.Result
}

// Pinger reports whether a backing dependency is reachable. The redis
// client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	config     *Config
	engine     *gin.Engine
	httpServer *http.Server
	asker      Asker
	legal      *LegalPages
	askSchema  *validation.Schema
	readiness  Pinger
	startTime  time.Time
	logger     logger.Logger
}

// New builds the gin engine and registers every route. fs backs the
// legal documents and the /public tree; readiness may be nil.
func New(cfg *Config, asker Asker, fs afero.Fs, readiness Pinger, log logger.Logger) (*Server, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	askSchema, err := validation.Compile(validation.AskRequestSchema)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		engine:    gin.New(),
		asker:     asker,
		legal:     NewLegalPages(fs, cfg),
		askSchema: askSchema,
		readiness: readiness,
		startTime: time.Now(),
		logger:    log.With(map[string]interface{}{"component": "server"}),
	}

	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(gin.Recovery())
	s.engine.Use(RequestID())
	s.engine.Use(AccessLog(s.logger))

	s.setupRoutes(fs)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes(fs afero.Fs) {
	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/ask", AskRecovery(s.logger), s.handleAsk)
	s.engine.GET("/terms", s.legalHandler(s.legal.Terms))
	s.engine.GET("/privacy", s.legalHandler(s.legal.Privacy))

	if s.config.PublicDir != "" {
		s.engine.StaticFS("/public", afero.NewHttpFs(fs).Dir(s.config.PublicDir))
	}

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ready", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the engine for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// up to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": s.config.Address})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

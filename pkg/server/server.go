// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/llm"
	"github.com/haigpapa/Chromatoverse/pkg/repo"
)

// Version is reported by the health endpoint
const Version = "1.1.0"

// Analyzer runs one analysis over a directory
type Analyzer interface {
	Analyze(ctx context.Context, root string) (*analyzer.Result, error)
}

// Explainer reads error traces against a project's file list
type Explainer interface {
	ExplainError(ctx context.Context, trace string, paths []string) (*llm.ErrorExplanation, error)
}

// Store persists analyses; optional
type Store interface {
	SaveAnalysis(ctx context.Context, target string, result *analyzer.Result) (string, error)
	GetAnalysis(ctx context.Context, id string) (*analyzer.Result, error)
}

// Config holds server configuration
type Config struct {
	Addr           string
	TempDir        string
	CacheSize      int           // 0 disables the result cache
	CacheTTL       time.Duration
	CloneTimeout   time.Duration
	AllowedOrigins []string // empty = "*"
	Version        string
}

// Deps are the collaborators behind the routes
type Deps struct {
	Analyzer  Analyzer
	Cloner    repo.Cloner
	Explainer Explainer // nil = AI features unavailable
	Store     Store     // nil = no persistence
	AIEnabled bool      // files are classified by a model
	Logger    *slog.Logger
}

// Server is the HTTP API
type Server struct {
	cfg    Config
	deps   Deps
	log    *slog.Logger
	cache  *expirable.LRU[string, *analyzer.Result]
	engine *gin.Engine
}

// New creates a Server. Analyzer and Cloner are required.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("server: analyzer is required")
	}
	if deps.Cloner == nil {
		return nil, fmt.Errorf("server: cloner is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":5000"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.CloneTimeout == 0 {
		cfg.CloneTimeout = 2 * time.Minute
	}
	if cfg.Version == "" {
		cfg.Version = Version
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{cfg: cfg, deps: deps, log: deps.Logger}
	if cfg.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, *analyzer.Result](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(s.log), cors(s.cfg.AllowedOrigins), observe())

	api := r.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/explain-error", s.handleExplainError)
		api.GET("/health", s.handleHealth)
		api.GET("/analyses/:id", s.handleGetAnalysis)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Checkouts left by an earlier run are removed first.
func (s *Server) Run(ctx context.Context) error {
	if err := repo.CleanupStale(s.cfg.TempDir); err != nil {
		s.log.Error("Startup cleanup error", "error", err)
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("HTTP API listening", "addr", s.cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	s.log.Info("HTTP API stopped")
	return nil
}

// Package server owns the HTTP surface: a gin router over the
// orchestrator, workflow manager, reading store, and ephemeris, plus the
// prometheus scrape endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/infra/monitoring"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/auralab/aura/engine/workflow"
	"github.com/auralab/aura/pkg/config"
	"github.com/auralab/aura/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpWriteTimeout      = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// ReadingGetter is the persistence slice the readings routes need.
type ReadingGetter interface {
	GetByID(ctx context.Context, engine string, id core.ID) (*core.Reading, error)
	ListByUser(ctx context.Context, engine, userID string, limit int) ([]*core.Reading, error)
}

// UserCacheInvalidator drops all cached readings for one user.
type UserCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) (int, error)
}

// Sweeper runs a retention sweep on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (int64, error)
}

// Dependencies carries everything the routes need. Readings, Cache, and
// Sweeper are optional; their routes answer 503 when absent.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Workflows    *workflow.Manager
	Readings     ReadingGetter
	Cache        UserCacheInvalidator
	Sweeper      Sweeper
	Ephemeris    astro.Ephemeris
	Monitoring   *monitoring.Service
	Version      string
}

// Server wraps the gin router in an http.Server with sane timeouts and
// graceful shutdown.
type Server struct {
	cfg        *config.Config
	deps       Dependencies
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer assembles the router. The context scopes the request logger.
func NewServer(ctx context.Context, cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("server: orchestrator is required")
	}
	if deps.Monitoring == nil {
		deps.Monitoring = monitoring.NewServiceWithFallback(ctx, &monitoring.Config{Enabled: false})
	}
	s := &Server{cfg: cfg, deps: deps}
	s.buildRouter(ctx)
	return s, nil
}

func (s *Server) buildRouter(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(loggerMiddleware(logger.FromContext(ctx)))
	if s.cfg.Server.CORSEnabled {
		r.Use(corsMiddleware())
	}
	r.Use(s.deps.Monitoring.GinMiddleware(ctx))
	s.registerRoutes(r)
	s.router = r
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or the listener fails, then shuts
// down gracefully and drains pending reading writes.
func (s *Server) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info("HTTP server started", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	case <-ctx.Done():
	}
	return s.Shutdown(context.WithoutCancel(ctx))
}

// Shutdown stops accepting connections, waits for in-flight requests up
// to the configured timeout, and drains async writes.
func (s *Server) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = serverShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(shutdownCtx)
	}
	s.deps.Orchestrator.Drain()
	log.Info("HTTP server stopped")
	return err
}

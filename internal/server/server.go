// Package server wires the HTTP surface: upload, summaries, quality,
// charts, hypothesis tests, transforms, export and publish, all scoped to a
// cookie session.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datascope/internal/config"
	"datascope/internal/session"
)

// Logger is the minimal logging seam. Production passes log.Default();
// tests can capture output.
type Logger interface {
	Printf(format string, args ...any)
}

// Server holds the router and shared state.
type Server struct {
	cfg      *config.Config
	log      Logger
	sessions *session.Store
	router   *gin.Engine
}

// New builds a fully-routed server.
//
// Edge cases:
//   - A nil logger falls back to the stdlib default logger.
func New(cfg *config.Config, store *session.Store, logger Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		log:      logger,
		sessions: store,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	s.routes(r)
	s.router = r
	return s
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Printf("stage=serve addr=%s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Printf("stage=shutdown draining")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package server exposes the conversion engine over HTTP: per-pair
// conversion routes, capability discovery, and health probes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kfreiman/docbridge/internal/convert"
)

// Config holds the HTTP-facing knobs.
type Config struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server wraps an http.Server around the conversion engine.
type Server struct {
	engine     *convert.Engine
	httpServer *http.Server
	maxUpload  int64
	shutdownTO time.Duration
	logger     *slog.Logger
}

// New builds a Server. MaxUploadBytes <= 0 defaults to the fetch cap so
// uploads and downloads share one limit.
func New(engine *convert.Engine, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxUpload := config.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = convert.DefaultMaxFetchBytes
	}
	shutdownTO := config.ShutdownTimeout
	if shutdownTO <= 0 {
		shutdownTO = 10 * time.Second
	}

	s := &Server{
		engine:     engine,
		maxUpload:  maxUpload,
		shutdownTO: shutdownTO,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /ping-all", s.handlePingAll)
	mux.HandleFunc("GET /convert/supported", s.handleSupported)
	mux.HandleFunc("GET /convert/info/{pair}", s.handleInfo)
	mux.HandleFunc("POST /convert/{pair}", s.handleConvert)

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.logRequests(mux),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTO)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

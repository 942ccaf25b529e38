// Package server exposes the query surface and the WebSocket subscriber
// endpoint over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/driftworks/stackpulse/pkg/agent"
)

// Server holds the HTTP listener configuration and mux.
type Server struct {
	Addr   string
	Mux    *http.ServeMux
	agent  *agent.Agent
	logger *slog.Logger

	httpServer *http.Server
	startedAt  time.Time
}

// New creates a Server serving the given agent's data.
func New(addr string, a *agent.Agent, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Addr:      addr,
		Mux:       http.NewServeMux(),
		agent:     a,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Routes registers all HTTP handlers on the server mux.
func (s *Server) Routes() {
	s.Mux.HandleFunc("GET /health", s.handleHealth)
	s.Mux.HandleFunc("GET /api/status", s.handleStatus)
	s.Mux.HandleFunc("GET /api/services", s.handleServices)
	s.Mux.HandleFunc("GET /api/system", s.handleSystem)
	s.Mux.HandleFunc("GET /api/models", s.handleModels)
	s.Mux.HandleFunc("GET /api/pipelines", s.handlePipelines)
	s.Mux.HandleFunc("GET /ws", s.handleWS)
}

// Start runs ListenAndServe in a goroutine and returns immediately.
// Listen errors after startup are logged; the caller detects a dead
// listener through the returned error channel.
func (s *Server) Start() <-chan error {
	s.httpServer = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the HTTP server; in-flight requests get until
// ctx expires to finish. WebSocket subscriptions end when the hub closes.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

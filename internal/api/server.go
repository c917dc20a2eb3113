package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/recon-dashboard/internal/config"
)

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	health   *HealthChecker
	server   *http.Server
	router   *chi.Mux
}

// NewServer creates a new API server. health may be nil, in which case
// /health only reports liveness.
func NewServer(cfg config.ServerConfig, svc ScreenService, health *HealthChecker) *Server {
	if health == nil {
		health = NewHealthChecker(nil, nil, nil)
	}
	handlers := NewHandlers(svc)
	router := SetupRoutes(cfg, handlers, health)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: handlers,
		health:   health,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}

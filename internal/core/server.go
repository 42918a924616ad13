// Package core provides the API chassis: a chi router with the
// cross-cutting middleware chain (panic recovery, request IDs, structured
// request logging), JSON response helpers, and the health endpoint.
// Domain handlers register their own routes via registrar functions, which
// keeps core free of handler imports.
package core

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appstarter/internal/config"
)

// RouteRegistrar mounts a handler's routes onto the API router group.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the router and the dependencies shared by every
// request.
type Server struct {
	Config *config.Config
	Logger *slog.Logger

	router *chi.Mux
}

// NewServer builds the server and its router. The caller mounts routes via
// MountRoutes after construction.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MountRoutes registers the global middleware chain, the health endpoint,
// and the domain handlers under /api.
//
// Middleware order: Recoverer outermost to catch everything, then request
// ID generation so the logger can correlate.
func (s *Server) MountRoutes(registrars ...RouteRegistrar) {
	s.router.Use(Recoverer(s.Logger))
	s.router.Use(RequestID)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", s.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		for _, registrar := range registrars {
			registrar(r)
		}
	})
}

// Package web provides the HTTP server and handlers for the spreadsheet UI
// and its JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetview/internal/config"
	"github.com/JonMunkholm/sheetview/internal/core"
	appmw "github.com/JonMunkholm/sheetview/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for sheetview.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(appmw.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware(s))
	}
}

// setupRoutes configures all HTTP routes. The HTML and JSON surfaces share
// handlers; responses differ by wantsJSON.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleLanding)
	s.router.Post("/ws", s.handleCreate)
	s.router.Route("/ws/{id}", s.workspaceRoutes)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(appmw.APIKeyAuth(&s.cfg.Security))

		r.Get("/status", s.handleStatus)
		r.Post("/ws", s.handleCreate)
		r.Route("/ws/{id}", s.workspaceRoutes)
	})
}

func (s *Server) workspaceRoutes(r chi.Router) {
	r.Get("/", s.withWorkspace(s.handleView))
	r.Delete("/", s.withWorkspace(s.handleDelete))
	r.Post("/delete", s.withWorkspace(s.handleDelete))
	r.Post("/upload", s.withWorkspace(s.handleUpload))
	r.Post("/search", s.withWorkspace(s.handleSearch))
	r.Post("/sort", s.withWorkspace(s.handleSort))
	r.Post("/page", s.withWorkspace(s.handlePage))
	r.Post("/edit", s.withWorkspace(s.handleEdit))
	r.Post("/commit", s.withWorkspace(s.handleCommit))
	r.Get("/export", s.withWorkspace(s.handleExport))
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

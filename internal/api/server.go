// Package api serves the editor UI: field metadata, record views, edits with
// conflict resolution and bulk actions over the workspace.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/workspace"
)

// Options configures the server.
type Options struct {
	RatePerMinute  int // per client IP; 0 disables limiting
	AllowedOrigins []string
	Timeout        time.Duration
}

// Server is the HTTP server for the editor API.
type Server struct {
	ws     *workspace.Workspace
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server over ws.
func NewServer(ws *workspace.Workspace, opts Options) *Server {
	s := &Server{
		ws:     ws,
		router: chi.NewRouter(),
	}
	s.setupMiddleware(opts)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	if opts.Timeout > 0 {
		s.router.Use(middleware.Timeout(opts.Timeout))
	}

	if len(opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	if opts.RatePerMinute > 0 {
		limiter := newRateLimiter(opts.RatePerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Field registry
		r.Get("/fields", s.handleListFields)
		r.Get("/fields/{field}/conflict", s.handleConflict)

		// Records
		r.Get("/records", s.handleListRecords)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Post("/records/{id}/edit", s.handleEditRecord)
		r.Delete("/records/{id}/session", s.handleResetRecord)

		// Bulk edit
		r.Post("/bulk", s.handleBulk)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zap.L().Info("starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return eris.Wrap(s.server.Shutdown(ctx), "api: shutdown")
}

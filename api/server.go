/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for reviewer tooling

SECURITY NOTE:
  No authentication middleware. This API is meant to sit on a loopback or
  private network next to the submission orchestrator.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Workbook imports
		r.Route("/imports", func(r chi.Router) {
			r.Post("/preview", h.PreviewImport)
			r.Post("/validate", h.ValidateImport)
		})

		// Receipt history
		r.Route("/history", func(r chi.Router) {
			r.Post("/", h.RecordHistory)
			r.Get("/", h.ListHistory)
			r.Get("/stats", h.GetStats)
			r.Get("/contract/{contractID}", h.GetContractHistory)
			r.Get("/{id}", h.GetHistoryRecord)
			r.Delete("/{id}", h.DeleteHistoryRecord)
		})
	})

	return r
}

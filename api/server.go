/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Request counters and latency histograms
  5. CORS:       Cross-origin requests for internal dashboards

ROUTE GROUPS:
  /api/employees/*      Directory, punches, status, week views
  /api/entries/*        Timesheet entry calculation and validation
  /api/punches/*        Stateless transition checks
  /api/hours            Pure hours computation
  /api/weeks/*          Weekly recalculation
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. The service is meant to sit behind the
  payroll gateway, which owns authn/authz.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/overtime-engine/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Post("/", h.UpsertEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/punches", h.RecordPunch)
			r.Get("/{id}/punches", h.ListPunches)
			r.Get("/{id}/status", h.GetStatus)
			r.Get("/{id}/week", h.GetWeek)
		})

		// Entry routes
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", h.CreateEntry)
			r.Post("/validate", h.ValidateTimesheetEntry)
		})

		// Stateless calculation routes
		r.Post("/punches/validate", h.ValidatePunch)
		r.Post("/hours", h.CalculateHours)

		// Week routes
		r.Post("/weeks/recalculate", h.RecalculateWeek)

		r.Get("/health", h.Health)
	})

	// Prometheus scrape endpoint
	r.Method("GET", "/metrics", metrics.Handler())

	return r
}

// Package router sets up all HTTP routes and middleware chains for the
// CropDesk API. Every route under /api sits behind the API-key check;
// uploads carry an extra per-IP rate limit.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cropdesk/internal/handlers"
	"cropdesk/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(api *handlers.API, apiKeyHash string, uploadLimit int) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check — no auth.
	r.Get("/health", healthHandler)

	uploadLimiter := middleware.NewRateLimiter(uploadLimit, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(apiKeyHash))

		// Image records.
		r.Route("/images", func(r chi.Router) {
			r.With(uploadLimiter.Limit).Post("/", api.Upload)
			r.Get("/", api.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.Get)
				r.Delete("/", api.Delete)
				r.Post("/estimate", api.Estimate)
				r.Patch("/viewport", api.UpdateViewport)
				r.Post("/crop", api.CommitCrop)
				r.Post("/accept", api.Accept)
				r.Post("/reject", api.Reject)
				r.Get("/history", api.History)
				r.Get("/archive", api.Archive)
			})
		})

		// Encoded crop previews, addressed by content handle.
		r.Get("/previews/{handle}", api.Preview)

		// Export bundles.
		r.Get("/export", api.Export)
		r.Post("/export/upload", api.ExportToStorage)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

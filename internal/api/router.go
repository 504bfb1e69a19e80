package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shopshot/shopshot/internal/api/handlers"
	"github.com/shopshot/shopshot/internal/api/middleware"
	"github.com/shopshot/shopshot/internal/config"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(middleware.NewAPIKeyAuth().Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Batch working set
		r.Route("/batch", func(r chi.Router) {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", h.ListItems)
				r.Post("/", h.UploadItems)
				r.Route("/{itemID}", func(r chi.Router) {
					r.Patch("/", h.PatchItem)
					r.Delete("/", h.DeleteItem)
				})
			})
			r.Post("/run", h.RunBatch)
		})

		// Generated image history
		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Delete("/{assetID}", h.DeleteAsset)
		})

		// Marketplace export
		r.Post("/export", h.ExportBundle)

		// Video production
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", h.ListVideos)
			r.Post("/", h.ProduceVideo)
			r.Post("/eligibility", h.CheckEligibility)
			r.Delete("/{videoID}", h.DeleteVideo)
		})

		// Tools
		r.Post("/background-removal", h.RemoveBackground)

		// Plans & tokens
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/activate", h.ActivatePlan)
		})
		r.Route("/tokens", func(r chi.Router) {
			r.Get("/", h.GetBalance)
			r.Post("/topup", h.TopUpTokens)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "shopshot-backend",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "shopshot-backend",
		})
	}
}

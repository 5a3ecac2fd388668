package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the HTTP router.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/panels", func(r chi.Router) {
			r.Post("/", h.CreatePanel)
			r.Post("/load", h.LoadPanel)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPanel)
				r.Get("/asof", h.AsOf)
				r.Get("/range", h.GetRange)
				r.Get("/rows", h.GetRows)
				r.Get("/columns/{name}", h.GetColumn)

				r.Post("/features", h.DeriveFeatures)
				r.Post("/features/async", h.DeriveFeaturesAsync)
				r.Post("/transform", h.TransformPanel)
			})
		})
	})

	return r
}

// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guidepost-dev/guidepost/internal/config"
	"github.com/guidepost-dev/guidepost/internal/metrics"
)

// NewRouter builds the HTTP routing tree.
func NewRouter(handler *Handler, cfg *config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		// Permissive limit so monitoring can poll freely.
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		r.Use(prometheusMiddleware)

		r.Get("/algorithms", handler.Algorithms)
		r.Get("/matches/{userID}", handler.Matches)
		r.Get("/matches/{userID}/{otherID}", handler.Explain)

		r.Post("/recalculate", handler.RecalculateAll)
		r.Get("/recalculate/status", handler.RecalculateStatus)
		r.Post("/recalculate/{userID}", handler.RecalculateUser)

		r.Post("/rarity/reload", handler.RarityReload)
	})

	return r
}

// prometheusMiddleware records request count and latency per route pattern.
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.ObserveAPIRequest(r.Method, pattern, ww.Status(), start)
	})
}

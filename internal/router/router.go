// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// prompt API server.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"promptvault/internal/handlers"
	"promptvault/internal/middleware"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New creates and returns the configured Chi router with all middleware
// and routes wired up. exportLimiter may be nil to leave the export
// endpoint unthrottled. An empty allowedOrigins allows any origin.
func New(prompts *handlers.Prompts, db Pinger, exportLimiter *middleware.RateLimiter, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(corsHandler(allowedOrigins).Handler)

	r.Get("/health", healthHandler(db))

	r.Route("/api/prompts", func(r chi.Router) {
		r.Get("/", prompts.List)
		r.Post("/", prompts.Create)
		r.Get("/search", prompts.Search)
		r.Get("/stats", prompts.Stats)

		r.Group(func(r chi.Router) {
			if exportLimiter != nil {
				r.Use(exportLimiter.Middleware)
			}
			r.Post("/export-to-sheets", prompts.Export)
		})

		r.Get("/{id}", prompts.Get)
		r.Put("/{id}", prompts.Update)
		r.Delete("/{id}", prompts.Delete)
	})

	return r
}

// corsHandler allows browser clients from the given origins to call the
// API. The wildcard "*" or an empty list allows any origin.
func corsHandler(allowedOrigins []string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})
}

// healthHandler returns a JSON health check response. It answers 503
// when the database does not respond to a ping.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/jamfsync/internal/auth"
	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/middleware"
)

// NewRouter builds the trigger API routes.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, RemoteUserHeader, auth.RemoteGroupsHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         86400,
		}))
	}

	r.Get("/healthz/live", h.HealthLive)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(h.authenticate)
		r.Use(h.authorize)

		r.Route("/items/{itemtype}/{id}", func(r chi.Router) {
			r.Get("/link", h.GetLink)
			r.Delete("/link", h.UnmergeItem)
			r.Post("/merge", h.MergeItem)
			r.Post("/sync", h.SyncItem)
			r.Get("/extension-attributes", h.ItemExtensionAttributes)
			r.Delete("/", h.DeleteItem)
		})

		r.Route("/categories/{category}", func(r chi.Router) {
			r.Post("/discover", h.Discover)
			r.Post("/sync", h.SyncCategory)
			r.Post("/extension-attributes/sync", h.SyncExtensionAttributes)
		})

		r.Get("/pending", h.ListPending)
		r.Post("/pending/{category}/{jamfID}/import", h.ImportPending)
		r.Delete("/pending/{category}/{jamfID}", h.DismissPending)

		r.Post("/commands", h.SendCommand)
		r.Get("/audit", h.AuditEvents)
		r.Get("/backups", h.ListBackups)
		r.Post("/backups", h.CreateBackup)
		r.Post("/backups/{id}/verify", h.VerifyBackup)
		r.Get("/events/ws", h.EventStream)
	})

	return r
}

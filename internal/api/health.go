// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each dependency ping.
const healthCheckTimeout = 5 * time.Second

// HealthStatus is the data of GET /healthz.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	JamfConnected     bool    `json:"jamf_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Health handles GET /healthz. The service is "healthy" when both the local
// store and Jamf answer, "degraded" when only the store does, and "unhealthy"
// (503) when the store is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	health := HealthStatus{
		DatabaseConnected: ping(r.Context(), h.db),
		JamfConnected:     ping(r.Context(), h.jamf),
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	status := http.StatusOK
	switch {
	case !health.DatabaseConnected:
		health.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	case !health.JamfConnected:
		health.Status = "degraded"
	default:
		health.Status = "healthy"
	}
	respondData(w, status, health, start)
}

// HealthLive handles GET /healthz/live.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return p.Ping(ctx) == nil
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/validation"
	ws "github.com/tomtom215/jamfsync/internal/websocket"
)

// WithEventStream serves the live device event feed from hub. Browsers may
// connect only from origins.
func (h *Handler) WithEventStream(hub *ws.Hub, origins []string) *Handler {
	h.hub = hub
	h.origins = origins
	return h
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin admits non-browser clients, which send no Origin and are
// authenticated by the proxy, and browsers from the configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin) {
		return true
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// EventStream handles GET /api/v1/events/ws.
func (h *Handler) EventStream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, CodeEventsUnavailable, "event stream is not enabled", nil)
		return
	}

	filter := struct {
		Categories []string `validate:"dive,category"`
	}{r.URL.Query()["category"]}
	if err := validation.ValidateStruct(&filter); err != nil {
		respondEngineError(w, r, err)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, filter.Categories)
	h.hub.Register <- client
	client.Start()
}

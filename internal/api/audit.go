// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jamfsync/internal/audit"
	syncengine "github.com/tomtom215/jamfsync/internal/sync"
)

// anonymousActor is recorded when the caller is not authenticated.
const anonymousActor = "api"

// record fills in who, where and how an action went, then queues the event.
func (h *Handler) record(r *http.Request, event *audit.Event, err error) {
	if h.auditor == nil {
		return
	}
	event.Actor = remoteUser(r)
	if event.Actor == "" {
		event.Actor = anonymousActor
	}
	event.SourceIP = clientIP(r)

	switch {
	case err == nil:
		event.Outcome = audit.OutcomeSuccess
	case errors.Is(err, syncengine.ErrPermissionDenied), errors.Is(err, errAccessDenied):
		event.Outcome = audit.OutcomeDenied
		if event.Description == "" {
			event.Description = err.Error()
		}
	default:
		event.Outcome = audit.OutcomeFailure
		event.Description = err.Error()
	}
	h.auditor.LogContext(r.Context(), event)
}

func commandEvent(req syncengine.CommandRequest) *audit.Event {
	event := &audit.Event{
		Type:     audit.EventTypeCommandSent,
		Category: req.Category,
		Action:   req.Command,
	}
	if len(req.Items) == 1 {
		event.Itemtype = req.Items[0].Itemtype
		event.ItemsID = req.Items[0].ID
	}
	if meta, err := json.Marshal(map[string]interface{}{"items": req.Items, "fields": req.Fields}); err == nil {
		event.Metadata = meta
	}
	return event
}

// clientIP strips the port chi's RealIP leaves on direct connections.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// AuditEvents handles GET /api/v1/audit.
//
// Query parameters: type (comma separated), outcome, actor, category,
// jamf_id, since (RFC 3339), limit (max 1000).
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.auditor == nil {
		respondError(w, http.StatusNotFound, CodeAuditDisabled, "audit trail is disabled", nil)
		return
	}

	q := r.URL.Query()
	filter := audit.QueryFilter{
		Actor:    q.Get("actor"),
		Category: q.Get("category"),
		Limit:    audit.DefaultLimit,
	}
	for _, t := range strings.Split(q.Get("type"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, audit.EventType(t))
		}
	}
	if o := q.Get("outcome"); o != "" {
		filter.Outcomes = []audit.Outcome{audit.Outcome(o)}
	}
	if v := q.Get("jamf_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeBadRequest, "jamf_id must be an integer", nil)
			return
		}
		filter.JamfID = id
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeBadRequest, "since must be an RFC 3339 time", nil)
			return
		}
		filter.StartTime = &since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 1000 {
			respondError(w, http.StatusBadRequest, CodeBadRequest, "limit must be between 1 and 1000", nil)
			return
		}
		filter.Limit = limit
	}

	events, err := h.auditor.Query(r.Context(), filter)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respondData(w, http.StatusOK, events, start)
}

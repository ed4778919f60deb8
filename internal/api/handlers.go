// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/jamfsync/internal/audit"
	"github.com/tomtom215/jamfsync/internal/auth"
	"github.com/tomtom215/jamfsync/internal/authz"
	"github.com/tomtom215/jamfsync/internal/models"
	syncengine "github.com/tomtom215/jamfsync/internal/sync"
	"github.com/tomtom215/jamfsync/internal/validation"
	ws "github.com/tomtom215/jamfsync/internal/websocket"
)

// RemoteUserHeader names the Jamf account a command is sent for when the
// authenticating proxy fronts the API.
const RemoteUserHeader = auth.RemoteUserHeader

// Engine is the part of *sync.Engine the API triggers.
type Engine interface {
	Sync(ctx context.Context, itemtype string, id int64) (syncengine.Outcomes, error)
	LookupLink(ctx context.Context, itemtype string, id int64) (*models.DeviceLink, error)
	LookupRemote(ctx context.Context, category string, jamfID int64) (*models.DeviceLink, error)
	Merge(ctx context.Context, itemtype string, id int64, category string, jamfID int64) (syncengine.Outcomes, error)
	Unmerge(ctx context.Context, itemtype string, id int64) error
	DeleteItem(ctx context.Context, itemtype string, id int64) error
	ListExtensionAttributeValues(ctx context.Context, itemtype string, id int64) ([]models.ExtensionAttributeValue, error)

	Discover(ctx context.Context, category string) (int, error)
	SyncAll(ctx context.Context, category string) (int, error)
	SyncExtensionAttributeDefinitions(ctx context.Context, category string) (int, error)

	ListPending(ctx context.Context, category string) ([]models.PendingImport, error)
	ImportPending(ctx context.Context, category string, jamfID int64, itemtype string) (bool, error)
	DismissPending(ctx context.Context, category string, jamfID int64) error

	SendCommand(ctx context.Context, username string, req syncengine.CommandRequest) error
}

var _ Engine = (*syncengine.Engine)(nil)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the trigger API handlers.
type Handler struct {
	engine    Engine
	db        Pinger
	jamf      Pinger
	auditor   *audit.Logger
	authn     auth.Authenticator
	enforcer  *authz.Enforcer
	backups   Backups
	hub       *ws.Hub
	origins   []string
	startTime time.Time
}

// NewHandler creates the handlers. db and jamf back the health endpoint and
// may be nil.
func NewHandler(engine Engine, db, jamf Pinger) *Handler {
	return &Handler{engine: engine, db: db, jamf: jamf, startTime: time.Now()}
}

// WithAudit records commands and registry changes to auditor.
func (h *Handler) WithAudit(auditor *audit.Logger) *Handler {
	h.auditor = auditor
	return h
}

type itemParams struct {
	Itemtype string `validate:"required,itemtype"`
	ID       int64  `validate:"required,gt=0"`
}

type remoteParams struct {
	Category string `validate:"required,category"`
	JamfID   int64  `validate:"required,gt=0"`
}

// MergeRequest is the body of POST /items/{itemtype}/{id}/merge.
type MergeRequest struct {
	Category string `json:"category" validate:"required,category"`
	JamfID   int64  `json:"jamf_id" validate:"required,gt=0"`
}

// ImportRequest is the optional body of POST /pending/{category}/{jamfID}/import.
// An empty Itemtype imports as the guessed itemtype.
type ImportRequest struct {
	Itemtype string `json:"itemtype,omitempty" validate:"omitempty,itemtype"`
}

// parseItem reads and validates {itemtype} and {id}. It writes the error
// response and returns false on failure.
func parseItem(w http.ResponseWriter, r *http.Request) (itemParams, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "id must be an integer", nil)
		return itemParams{}, false
	}
	p := itemParams{Itemtype: chi.URLParam(r, "itemtype"), ID: id}
	if err := validation.ValidateStruct(&p); err != nil {
		respondEngineError(w, r, err)
		return itemParams{}, false
	}
	return p, true
}

func parseCategory(w http.ResponseWriter, r *http.Request) (string, bool) {
	category := chi.URLParam(r, "category")
	if err := validation.ValidateStruct(&struct {
		Category string `validate:"required,category"`
	}{category}); err != nil {
		respondEngineError(w, r, err)
		return "", false
	}
	return category, true
}

func parseRemote(w http.ResponseWriter, r *http.Request) (remoteParams, bool) {
	jamfID, err := strconv.ParseInt(chi.URLParam(r, "jamfID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "jamf id must be an integer", nil)
		return remoteParams{}, false
	}
	p := remoteParams{Category: chi.URLParam(r, "category"), JamfID: jamfID}
	if err := validation.ValidateStruct(&p); err != nil {
		respondEngineError(w, r, err)
		return remoteParams{}, false
	}
	return p, true
}

// GetLink handles GET /api/v1/items/{itemtype}/{id}/link.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseItem(w, r)
	if !ok {
		return
	}
	link, err := h.engine.LookupLink(r.Context(), p.Itemtype, p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, link, start)
}

// SyncItem handles POST /api/v1/items/{itemtype}/{id}/sync.
func (h *Handler) SyncItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseItem(w, r)
	if !ok {
		return
	}
	outcomes, err := h.engine.Sync(r.Context(), p.Itemtype, p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, models.SyncResult{
		Itemtype: p.Itemtype,
		ItemsID:  p.ID,
		Tasks:    outcomes.Models(),
	}, start)
}

// MergeItem handles POST /api/v1/items/{itemtype}/{id}/merge.
func (h *Handler) MergeItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseItem(w, r)
	if !ok {
		return
	}
	var req MergeRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondEngineError(w, r, err)
		return
	}

	outcomes, err := h.engine.Merge(r.Context(), p.Itemtype, p.ID, req.Category, req.JamfID)
	h.record(r, &audit.Event{
		Type:     audit.EventTypeDeviceMerged,
		Category: req.Category,
		JamfID:   req.JamfID,
		Itemtype: p.Itemtype,
		ItemsID:  p.ID,
		Action:   "merge",
	}, err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, models.SyncResult{
		Itemtype: p.Itemtype,
		ItemsID:  p.ID,
		Tasks:    outcomes.Models(),
	}, start)
}

// UnmergeItem handles DELETE /api/v1/items/{itemtype}/{id}/link.
func (h *Handler) UnmergeItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseItem(w, r)
	if !ok {
		return
	}
	err := h.engine.Unmerge(r.Context(), p.Itemtype, p.ID)
	h.record(r, &audit.Event{Type: audit.EventTypeDeviceUnmerged, Itemtype: p.Itemtype, ItemsID: p.ID, Action: "unmerge"}, err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, models.SyncResult{Itemtype: p.Itemtype, ItemsID: p.ID}, start)
}

// DeleteItem handles DELETE /api/v1/items/{itemtype}/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseItem(w, r)
	if !ok {
		return
	}
	err := h.engine.DeleteItem(r.Context(), p.Itemtype, p.ID)
	h.record(r, &audit.Event{Type: audit.EventTypeDeviceDeleted, Itemtype: p.Itemtype, ItemsID: p.ID, Action: "delete"}, err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, models.SyncResult{Itemtype: p.Itemtype, ItemsID: p.ID}, start)
}

// ItemExtensionAttributes handles GET /api/v1/items/{itemtype}/{id}/extension-attributes.
func (h *Handler) ItemExtensionAttributes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseItem(w, r)
	if !ok {
		return
	}
	values, err := h.engine.ListExtensionAttributeValues(r.Context(), p.Itemtype, p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if values == nil {
		values = []models.ExtensionAttributeValue{}
	}
	respondData(w, http.StatusOK, values, start)
}

// batchHandler wraps a per-category engine pass.
func (h *Handler) batchHandler(pass func(ctx context.Context, category string) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		category, ok := parseCategory(w, r)
		if !ok {
			return
		}
		count, err := pass(r.Context(), category)
		if err != nil {
			respondEngineError(w, r, err)
			return
		}
		respondData(w, http.StatusOK, models.BatchResult{Category: category, Count: count}, start)
	}
}

// Discover handles POST /api/v1/categories/{category}/discover.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	h.batchHandler(h.engine.Discover)(w, r)
}

// SyncCategory handles POST /api/v1/categories/{category}/sync.
func (h *Handler) SyncCategory(w http.ResponseWriter, r *http.Request) {
	h.batchHandler(h.engine.SyncAll)(w, r)
}

// SyncExtensionAttributes handles POST /api/v1/categories/{category}/extension-attributes/sync.
func (h *Handler) SyncExtensionAttributes(w http.ResponseWriter, r *http.Request) {
	h.batchHandler(h.engine.SyncExtensionAttributeDefinitions)(w, r)
}

// ListPending handles GET /api/v1/pending.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pending, err := h.engine.ListPending(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if pending == nil {
		pending = []models.PendingImport{}
	}
	respondData(w, http.StatusOK, pending, start)
}

// ImportPending handles POST /api/v1/pending/{category}/{jamfID}/import.
func (h *Handler) ImportPending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseRemote(w, r)
	if !ok {
		return
	}
	var req ImportRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondEngineError(w, r, err)
		return
	}

	imported, err := h.engine.ImportPending(r.Context(), p.Category, p.JamfID, req.Itemtype)
	event := &audit.Event{Type: audit.EventTypeDeviceImported, Category: p.Category, JamfID: p.JamfID, Action: "import"}
	if err != nil {
		h.record(r, event, err)
		respondEngineError(w, r, err)
		return
	}
	data := map[string]interface{}{"category": p.Category, "jamf_id": p.JamfID, "imported": imported}
	if imported {
		if link, err := h.engine.LookupRemote(r.Context(), p.Category, p.JamfID); err == nil {
			data["itemtype"] = link.Itemtype
			data["items_id"] = link.ItemsID
			event.Itemtype, event.ItemsID = link.Itemtype, link.ItemsID
		}
	} else {
		event.Description = "dropped by import rules"
	}
	h.record(r, event, nil)
	respondData(w, http.StatusOK, data, start)
}

// DismissPending handles DELETE /api/v1/pending/{category}/{jamfID}.
func (h *Handler) DismissPending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := parseRemote(w, r)
	if !ok {
		return
	}
	err := h.engine.DismissPending(r.Context(), p.Category, p.JamfID)
	h.record(r, &audit.Event{Type: audit.EventTypeImportDismissed, Category: p.Category, JamfID: p.JamfID, Action: "dismiss"}, err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"category": p.Category, "jamf_id": p.JamfID}, start)
}

// SendCommand handles POST /api/v1/commands.
func (h *Handler) SendCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username := remoteUser(r)
	if username == "" {
		respondError(w, http.StatusUnauthorized, CodeUnauthenticated, "an authenticated user is required", nil)
		return
	}

	var req syncengine.CommandRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	err := h.engine.SendCommand(r.Context(), username, req)
	h.record(r, commandEvent(req), err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusAccepted, map[string]interface{}{
		"category": req.Category,
		"command":  req.Command,
		"items":    len(req.Items),
	}, start)
}

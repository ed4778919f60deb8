// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/jamfsync/internal/audit"
	"github.com/tomtom215/jamfsync/internal/backup"
)

// Backups is the part of *backup.Manager the API uses.
type Backups interface {
	Create(ctx context.Context, trigger backup.Trigger) (*backup.Backup, error)
	List() ([]backup.Backup, error)
	Verify(id string) error
}

var _ Backups = (*backup.Manager)(nil)

// WithBackups serves the backup endpoints from backups.
func (h *Handler) WithBackups(backups Backups) *Handler {
	h.backups = backups
	return h
}

func (h *Handler) backupsEnabled(w http.ResponseWriter) bool {
	if h.backups == nil {
		respondError(w, http.StatusNotFound, CodeBackupDisabled, "backups are disabled", nil)
		return false
	}
	return true
}

// ListBackups handles GET /api/v1/backups.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.backupsEnabled(w) {
		return
	}
	backups, err := h.backups.List()
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, backups, start)
}

// CreateBackup handles POST /api/v1/backups.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.backupsEnabled(w) {
		return
	}
	b, err := h.backups.Create(r.Context(), backup.TriggerManual)
	event := &audit.Event{Type: audit.EventTypeBackupCreated, Action: "backup"}
	if b != nil {
		event.Description = b.FileName
	}
	h.record(r, event, err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, b, start)
}

// VerifyBackup handles POST /api/v1/backups/{id}/verify.
func (h *Handler) VerifyBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.backupsEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.backups.Verify(id); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"id": id, "valid": true}, start)
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/jamfsync/internal/backup"
	"github.com/tomtom215/jamfsync/internal/jamf"
	syncengine "github.com/tomtom215/jamfsync/internal/sync"
	"github.com/tomtom215/jamfsync/internal/validation"
)

// Error codes returned in APIError.Code.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeItemNotFound        = "ITEM_NOT_FOUND"
	CodeNotLinked           = "NOT_LINKED"
	CodeAlreadyLinked       = "ALREADY_LINKED"
	CodeRemoteNotFound      = "REMOTE_NOT_FOUND"
	CodeUnknownCategory     = "UNKNOWN_CATEGORY"
	CodeUnsupportedItemtype = "UNSUPPORTED_ITEMTYPE"
	CodePendingNotFound     = "PENDING_NOT_FOUND"
	CodeJobRunning          = "JOB_RUNNING"
	CodeUnknownCommand      = "UNKNOWN_COMMAND"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeSyncFailed          = "SYNC_FAILED"
	CodeJamfUnavailable     = "JAMF_UNAVAILABLE"
	CodeAuditDisabled       = "AUDIT_DISABLED"
	CodeEventsUnavailable   = "EVENTS_UNAVAILABLE"
	CodeBackupDisabled      = "BACKUP_DISABLED"
	CodeBackupRunning       = "BACKUP_RUNNING"
	CodeBackupNotFound      = "BACKUP_NOT_FOUND"
	CodeBackupCorrupt       = "BACKUP_CORRUPT"
	CodeInternal            = "INTERNAL_ERROR"
)

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{syncengine.ErrItemNotFound, http.StatusNotFound, CodeItemNotFound},
	{syncengine.ErrNotLinked, http.StatusNotFound, CodeNotLinked},
	{syncengine.ErrAlreadyLinked, http.StatusConflict, CodeAlreadyLinked},
	{syncengine.ErrRemoteNotFound, http.StatusNotFound, CodeRemoteNotFound},
	{syncengine.ErrUnknownCategory, http.StatusBadRequest, CodeUnknownCategory},
	{syncengine.ErrUnsupportedItemtype, http.StatusBadRequest, CodeUnsupportedItemtype},
	{syncengine.ErrPendingNotFound, http.StatusNotFound, CodePendingNotFound},
	{syncengine.ErrJobRunning, http.StatusConflict, CodeJobRunning},
	{syncengine.ErrUnknownCommand, http.StatusBadRequest, CodeUnknownCommand},
	{syncengine.ErrPermissionDenied, http.StatusForbidden, CodePermissionDenied},
	{backup.ErrBackupRunning, http.StatusConflict, CodeBackupRunning},
	{backup.ErrBackupNotFound, http.StatusNotFound, CodeBackupNotFound},
	{backup.ErrChecksumMismatch, http.StatusUnprocessableEntity, CodeBackupCorrupt},
	{jamf.ErrRateLimited, http.StatusServiceUnavailable, CodeJamfUnavailable},
	{gobreaker.ErrOpenState, http.StatusServiceUnavailable, CodeJamfUnavailable},
	{gobreaker.ErrTooManyRequests, http.StatusServiceUnavailable, CodeJamfUnavailable},
}

// classify maps an engine error to an HTTP status, error code and optional
// details. A *RunError is checked before the sentinels so a run that failed
// on a rate limit still reports its task outcomes.
func classify(err error) (int, string, map[string]interface{}) {
	var structErr *validation.StructError
	if errors.As(err, &structErr) {
		fields := make([]map[string]string, len(structErr.Fields))
		for i, f := range structErr.Fields {
			fields[i] = map[string]string{"field": f.Field, "tag": f.Tag, "message": f.Message}
		}
		return http.StatusBadRequest, CodeValidation, map[string]interface{}{"fields": fields}
	}

	var runErr *syncengine.RunError
	if errors.As(err, &runErr) {
		failed := make([]map[string]string, len(runErr.Failed))
		for i, f := range runErr.Failed {
			entry := map[string]string{"task": string(f.Task), "outcome": string(f.Outcome)}
			if f.Err != nil {
				entry["error"] = f.Err.Error()
			}
			failed[i] = entry
		}
		return http.StatusBadGateway, CodeSyncFailed, map[string]interface{}{"failed": failed}
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.code, nil
		}
	}
	return http.StatusInternalServerError, CodeInternal, nil
}

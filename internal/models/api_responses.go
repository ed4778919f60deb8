// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package models

import "time"

// APIResponse is the envelope for every trigger API response.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":12}}
//	{"status":"error","error":{"code":"NOT_LINKED","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SyncResult reports a completed sync or import trigger.
type SyncResult struct {
	Itemtype string        `json:"itemtype"`
	ItemsID  int64         `json:"items_id"`
	Tasks    []TaskOutcome `json:"tasks,omitempty"`
}

// TaskOutcome is one (task, outcome) pair of a sync run.
type TaskOutcome struct {
	Task    string `json:"task"`
	Outcome string `json:"outcome"`
}

// BatchResult reports a discovery or sync-due pass. Count is -1 when there
// was nothing to do.
type BatchResult struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

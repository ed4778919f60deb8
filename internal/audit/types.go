// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeCommandSent     EventType = "command.sent"
	EventTypeDeviceMerged    EventType = "device.merged"
	EventTypeDeviceUnmerged  EventType = "device.unmerged"
	EventTypeDeviceDeleted   EventType = "device.deleted"
	EventTypeDeviceImported  EventType = "device.imported"
	EventTypeImportDismissed EventType = "import.dismissed"
	EventTypeAccessDenied    EventType = "access.denied"
	EventTypeBackupCreated   EventType = "backup.created"
)

// Outcome says whether the action went through.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeDenied  Outcome = "denied"
)

// Event is one audited action.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Outcome   Outcome   `json:"outcome"`

	// Actor is the account behind the request, or "api" when the proxy
	// supplied none.
	Actor    string `json:"actor"`
	SourceIP string `json:"source_ip,omitempty"`

	// Target, all optional.
	Category string `json:"category,omitempty"`
	JamfID   int64  `json:"jamf_id,omitempty"`
	Itemtype string `json:"itemtype,omitempty"`
	ItemsID  int64  `json:"items_id,omitempty"`

	// Action is the command name or registry operation.
	Action      string          `json:"action"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter selects events. Zero fields do not filter. Results are newest
// first.
type QueryFilter struct {
	Types     []EventType
	Outcomes  []Outcome
	Actor     string
	Category  string
	JamfID    int64
	StartTime *time.Time
	Limit     int
}

// DefaultLimit applies when QueryFilter.Limit is zero.
const DefaultLimit = 100

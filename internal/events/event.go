// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is bumped on breaking changes to DeviceEvent.
const SchemaVersion = 1

// Type is the kind of lifecycle change.
type Type string

const (
	DeviceQueued     Type = "queued"
	DeviceImported   Type = "imported"
	DeviceSynced     Type = "synced"
	DeviceSyncFailed Type = "sync_failed"
	DeviceLinked     Type = "linked"
	DeviceUnlinked   Type = "unlinked"
	DeviceDeleted    Type = "deleted"
)

func (t Type) valid() bool {
	switch t {
	case DeviceQueued, DeviceImported, DeviceSynced, DeviceSyncFailed,
		DeviceLinked, DeviceUnlinked, DeviceDeleted:
		return true
	}
	return false
}

// localSegment replaces the category in subjects of events that have no
// Jamf side.
const localSegment = "item"

// DeviceEvent is the payload of every published message.
type DeviceEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Type          Type      `json:"type"`
	Timestamp     time.Time `json:"timestamp"`

	Category string `json:"category,omitempty"`
	JamfID   int64  `json:"jamf_id,omitempty"`
	Itemtype string `json:"itemtype,omitempty"`
	ItemsID  int64  `json:"items_id,omitempty"`
	Name     string `json:"name,omitempty"`

	// Tasks maps task name to outcome for synced, sync_failed and linked.
	Tasks map[string]string `json:"tasks,omitempty"`
	Error string            `json:"error,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewDeviceEvent returns an event with a fresh id and the current time.
func NewDeviceEvent(t Type, category string, jamfID int64) *DeviceEvent {
	return &DeviceEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		Type:          t,
		Timestamp:     time.Now().UTC(),
		Category:      category,
		JamfID:        jamfID,
	}
}

// Validate checks the fields consumers rely on.
func (e *DeviceEvent) Validate() error {
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	if !e.Type.valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Category == "" && e.Itemtype == "" {
		return errors.New("category or itemtype is required")
	}
	return nil
}

// Subject returns the NATS subject of the event under prefix.
func (e *DeviceEvent) Subject(prefix string) string {
	segment := strings.ToLower(e.Category)
	if segment == "" {
		segment = localSegment
	}
	return prefix + "." + segment + "." + string(e.Type)
}

// Marshal validates and encodes an event.
func Marshal(e *DeviceEvent) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes an event payload.
func Unmarshal(data []byte) (*DeviceEvent, error) {
	var e DeviceEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &e, nil
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"

	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/logging"
)

// EventSink receives device lifecycle events. *events.Publisher implements
// it.
type EventSink interface {
	Publish(ctx context.Context, event *events.DeviceEvent) error
}

var _ EventSink = (*events.Publisher)(nil)

// SetEventSinks enables event publishing to every non-nil sink. Call it
// before the engine is shared.
func (e *Engine) SetEventSinks(sinks ...EventSink) {
	e.sinks = e.sinks[:0]
	for _, s := range sinks {
		if s != nil {
			e.sinks = append(e.sinks, s)
		}
	}
}

// emit publishes event after the change it describes is committed. A failed
// publish is logged and otherwise ignored.
func (e *Engine) emit(ctx context.Context, event *events.DeviceEvent) {
	if len(e.sinks) == 0 {
		return
	}
	event.CorrelationID = logging.CorrelationIDFromContext(ctx)
	for _, sink := range e.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event", string(event.Type)).Msg("Device event not published")
		}
	}
}

func itemEvent(t events.Type, category string, jamfID int64, itemtype string, itemsID int64) *events.DeviceEvent {
	ev := events.NewDeviceEvent(t, category, jamfID)
	ev.Itemtype = itemtype
	ev.ItemsID = itemsID
	return ev
}

// taskMap flattens outcomes for an event payload.
func (o Outcomes) taskMap() map[string]string {
	if len(o) == 0 {
		return nil
	}
	m := make(map[string]string, len(o))
	for _, t := range o {
		m[string(t.Task)] = string(t.Outcome)
	}
	return m
}

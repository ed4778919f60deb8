// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package wal

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/logging"
)

// DurablePublisher logs each event before handing it to the next publisher
// and confirms it once the publish succeeds. A failed publish leaves the entry
// for the Replayer.
type DurablePublisher struct {
	wal  *BadgerWAL
	next Publisher
}

// NewDurablePublisher wraps next.
func NewDurablePublisher(w *BadgerWAL, next Publisher) *DurablePublisher {
	return &DurablePublisher{wal: w, next: next}
}

// Publish implements the engine's event sink.
func (p *DurablePublisher) Publish(ctx context.Context, event *events.DeviceEvent) error {
	if event == nil {
		return ErrNilEvent
	}
	entryID, err := p.wal.Write(ctx, event)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event_id", event.EventID).Msg("WAL write failed, publishing without durability")
		return p.next.Publish(ctx, event)
	}

	if err := p.next.Publish(ctx, event); err != nil {
		if uerr := p.wal.UpdateAttempt(ctx, entryID, err.Error()); uerr != nil && !errors.Is(uerr, ErrEntryNotFound) {
			logging.Ctx(ctx).Error().Err(uerr).Str("entry_id", entryID).Msg("WAL update attempt failed")
		}
		return fmt.Errorf("event %s kept for replay: %w", event.EventID, err)
	}

	// A replay may have confirmed the entry first.
	if err := p.wal.Confirm(ctx, entryID); err != nil && !errors.Is(err, ErrEntryNotFound) {
		logging.Ctx(ctx).Warn().Err(err).Str("entry_id", entryID).Msg("WAL confirm failed")
	}
	return nil
}

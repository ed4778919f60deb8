// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
	"github.com/tomtom215/jamfsync/internal/models"
)

const (
	jobDiscover = "discover"
	jobSyncDue  = "sync_due"
)

// Discover lists every device of category in Jamf and handles the ones not
// linked yet: with auto import on they are imported, otherwise queued as
// pending candidates. It returns how many devices were imported or queued,
// or -1 when Jamf returned no devices. Device links are never modified.
func (e *Engine) Discover(ctx context.Context, category string) (int, error) {
	if _, err := descriptorFor(category); err != nil {
		return 0, err
	}
	unlock, ok := e.jobs.TryLock(jobDiscover, category)
	if !ok {
		return 0, fmt.Errorf("%w: %s %s", ErrJobRunning, jobDiscover, category)
	}
	defer unlock()

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx).With().Str("category", category).Logger()

	devices, err := e.source.ListDevices(ctx, category)
	if err != nil {
		return -1, fmt.Errorf("list %s devices: %w", category, err)
	}
	if len(devices) == 0 {
		log.Info().Msg("Jamf returned no devices")
		return -1, nil
	}

	linked, err := e.db.LinkedJamfIDs(ctx, category)
	if err != nil {
		return 0, err
	}
	pending, err := e.db.PendingJamfIDs(ctx, category)
	if err != nil {
		return 0, err
	}

	count, failures := 0, 0
	for i := range devices {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		d := &devices[i]

		if _, ok := linked[d.ID]; ok {
			metrics.DiscoveryDevicesTotal.WithLabelValues(category, "linked").Inc()
			continue
		}

		if e.cfg.AutoImport {
			imported, err := e.Import(ctx, GuessItemtype(category, d.ModelIdentifier), category, d.ID)
			switch {
			case err != nil:
				failures++
				metrics.DiscoveryDevicesTotal.WithLabelValues(category, "failed").Inc()
			case imported:
				count++
				metrics.DiscoveryDevicesTotal.WithLabelValues(category, "imported").Inc()
			}
			continue
		}

		if _, ok := pending[d.ID]; ok {
			metrics.DiscoveryDevicesTotal.WithLabelValues(category, "pending").Inc()
			continue
		}
		candidate := pendingFromSummary(category, d, e.now().UTC())
		created, err := e.db.CreatePendingImport(ctx, candidate)
		if err != nil {
			return count, err
		}
		if created {
			count++
			metrics.DiscoveryDevicesTotal.WithLabelValues(category, "queued").Inc()
			ev := itemEvent(events.DeviceQueued, category, d.ID, candidate.Itemtype, 0)
			ev.Name = candidate.Name
			e.emit(ctx, ev)
		}
	}

	if failures > 0 {
		log.Warn().Int("failed", failures).Msg("Some discovered devices failed to import")
	}
	log.Info().Int("devices", len(devices)).Int("handled", count).Msg("Discovery finished")
	return count, nil
}

func pendingFromSummary(category string, d *jamf.DeviceSummary, at time.Time) *models.PendingImport {
	return &models.PendingImport{
		Category:        category,
		JamfID:          d.ID,
		Name:            d.Name,
		UDID:            d.UDID,
		Serial:          d.Serial,
		ModelIdentifier: d.ModelIdentifier,
		Itemtype:        GuessItemtype(category, d.ModelIdentifier),
		DateDiscover:    at,
	}
}

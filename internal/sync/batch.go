// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

// SyncAll refreshes every link of category whose last sync is older than the
// configured interval. Extension attribute definitions are refreshed first.
// It returns the number of successful runs, or -1 when nothing was due.
// Failed runs are logged and counted; they do not stop the batch.
func (e *Engine) SyncAll(ctx context.Context, category string) (int, error) {
	if _, err := descriptorFor(category); err != nil {
		return 0, err
	}
	unlock, ok := e.jobs.TryLock(jobSyncDue, category)
	if !ok {
		return 0, fmt.Errorf("%w: %s %s", ErrJobRunning, jobSyncDue, category)
	}
	defer unlock()

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx).With().Str("category", category).Logger()

	if e.cfg.Tasks.ExtensionAttributes {
		if _, err := e.SyncExtensionAttributeDefinitions(ctx, category); err != nil {
			log.Warn().Err(err).Msg("Extension attribute definition refresh failed")
		}
	}

	due := e.now().Add(-e.cfg.Interval).UTC()
	links, err := e.db.ListDeviceLinks(ctx, database.LinkFilter{Category: category, DueBefore: &due})
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		return -1, nil
	}

	start := time.Now()
	count, failures := 0, 0
	for i := range links {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		link := &links[i]

		item, err := e.db.GetItem(ctx, link.Itemtype, link.ItemsID)
		if errors.Is(err, database.ErrItemNotFound) {
			failures++
			log.Error().Str("itemtype", link.Itemtype).Int64("items_id", link.ItemsID).
				Msg("Linked item is missing")
			continue
		}
		if err != nil {
			return count, err
		}

		if _, err := e.syncLinked(ctx, item, link); err != nil {
			failures++
			continue
		}
		count++
	}

	metrics.SyncBatchLastRun.WithLabelValues(category).SetToCurrentTime()
	if failures > 0 {
		log.Warn().Int("failed", failures).Msgf("%d devices failed to sync", failures)
	}
	log.Info().Int("synced", count).Dur("duration", time.Since(start)).Msg("Sync batch finished")
	return count, nil
}

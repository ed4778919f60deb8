// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"fmt"

	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
	"github.com/tomtom215/jamfsync/internal/models"
)

// SyncExtensionAttributeDefinitions mirrors the extension attribute
// definitions of category. Rows are keyed by (category, jamf_id), so running
// it twice leaves the same set. It returns the number of definitions stored.
func (e *Engine) SyncExtensionAttributeDefinitions(ctx context.Context, category string) (int, error) {
	desc, err := descriptorFor(category)
	if err != nil {
		return 0, err
	}

	summaries, err := e.source.ListExtensionAttributes(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("list %s extension attributes: %w", category, err)
	}

	count := 0
	for _, sum := range summaries {
		detail, err := e.source.GetExtensionAttribute(ctx, category, sum.ID)
		if err != nil {
			return count, fmt.Errorf("get %s extension attribute %d: %w", category, sum.ID, err)
		}

		if _, err := e.db.UpsertExtensionAttribute(ctx, &models.ExtensionAttribute{
			Category:    category,
			JamfID:      detail.ID,
			Itemtype:    desc.definitionItemtype,
			Name:        detail.Name,
			Description: detail.Description,
			DataType:    detail.DataType,
		}); err != nil {
			return count, err
		}
		count++
	}

	metrics.ExtensionAttributeDefinitions.WithLabelValues(category).Add(float64(count))
	logging.Ctx(ctx).Debug().Str("category", category).Int("definitions", count).
		Msg("Extension attribute definitions refreshed")
	return count, nil
}

// ListExtensionAttributeValues returns the mirrored values of a local item.
func (e *Engine) ListExtensionAttributeValues(ctx context.Context, itemtype string, id int64) ([]models.ExtensionAttributeValue, error) {
	return e.db.GetExtensionAttributeValues(ctx, itemtype, id)
}

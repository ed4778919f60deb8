// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
	"github.com/tomtom215/jamfsync/internal/models"
	"github.com/tomtom215/jamfsync/internal/rules"
)

// Import creates a local item of itemtype for a Jamf device and runs its
// first sync. It returns false with a nil error when the import rules drop
// the device or when the device is already known locally.
func (e *Engine) Import(ctx context.Context, itemtype, category string, jamfID int64) (bool, error) {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	ctx = logging.ContextWithDevice(ctx, category, jamfID)

	imported, err := e.importDevice(ctx, itemtype, category, jamfID)
	switch {
	case err != nil:
		metrics.ImportsTotal.WithLabelValues(category, "failed").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("itemtype", itemtype).Msg("Import failed")
	case imported:
		metrics.ImportsTotal.WithLabelValues(category, "imported").Inc()
	}
	return imported, err
}

func (e *Engine) importDevice(ctx context.Context, itemtype, category string, jamfID int64) (bool, error) {
	desc, err := descriptorFor(category)
	if err != nil {
		return false, err
	}
	if !desc.supports(itemtype) {
		return false, fmt.Errorf("%w: %s as %s", ErrUnsupportedItemtype, category, itemtype)
	}

	unlock := e.devices.Lock(deviceKey(category, jamfID))
	defer unlock()

	switch _, err := e.db.GetDeviceLinkByRemote(ctx, category, jamfID); {
	case err == nil:
		logging.Ctx(ctx).Info().Msg("Device already linked, import skipped")
		metrics.ImportsTotal.WithLabelValues(category, "duplicate").Inc()
		return false, nil
	case !errors.Is(err, database.ErrLinkNotFound):
		return false, err
	}

	record, err := e.fetchRecord(ctx, category, jamfID)
	if err != nil {
		return false, err
	}

	input := desc.ruleInput(record, itemtype)
	out, err := e.evaluator().Evaluate(ctx, input, input, rules.Options{Recursive: true})
	if err != nil {
		return false, fmt.Errorf("evaluate import rules: %w", err)
	}
	if out.ImportDenied() {
		logging.Ctx(ctx).Info().Msg("Import dropped by rules")
		metrics.ImportsTotal.WithLabelValues(category, "dropped").Inc()
		return false, nil
	}
	if t := out[rules.FieldItemtype]; t != "" && t != itemtype {
		if !desc.supports(t) {
			return false, fmt.Errorf("%w: rules rewrote %s to %s", ErrUnsupportedItemtype, itemtype, t)
		}
		itemtype = t
	}

	udid := record.String(desc.paths.udid)
	dupes, err := e.db.FindItemIDsByUUID(ctx, itemtype, udid)
	if err != nil {
		return false, err
	}
	if len(dupes) > 0 {
		logging.Ctx(ctx).Warn().Str("udid", udid).Int64("items_id", dupes[0]).
			Msg("Local item with the same UDID exists, import skipped")
		metrics.ImportsTotal.WithLabelValues(category, "duplicate").Inc()
		return false, nil
	}

	name := out[rules.FieldName]
	if name == "" {
		name = record.String(desc.paths.name)
	}

	override := NewChangeset()
	override.SetItem("name", name)
	override.SetLink("import_date", e.now().UTC())

	item := &models.Item{Itemtype: itemtype, Name: name, IsDynamic: true}
	err = e.db.WithTx(ctx, func(s *database.Store) error {
		if _, err := s.CreateItem(ctx, item); err != nil {
			return err
		}

		if _, err := e.runSync(ctx, runInput{
			store:    s,
			desc:     desc,
			item:     item,
			jamfID:   jamfID,
			record:   record,
			override: override,
		}); err != nil {
			return err
		}

		_, err := s.DeletePendingImport(ctx, category, jamfID)
		return err
	})
	if err != nil {
		return false, err
	}

	logging.Ctx(ctx).Info().Str("itemtype", itemtype).Str("name", name).Msg("Device imported")
	ev := itemEvent(events.DeviceImported, category, jamfID, itemtype, item.ID)
	ev.Name = name
	e.emit(ctx, ev)
	return true, nil
}

// ImportPending imports a queued candidate. An empty itemtype uses the type
// guessed at discovery.
func (e *Engine) ImportPending(ctx context.Context, category string, jamfID int64, itemtype string) (bool, error) {
	p, err := e.db.GetPendingImport(ctx, category, jamfID)
	if errors.Is(err, database.ErrPendingImportNotFound) {
		return false, fmt.Errorf("%w: %s %d", ErrPendingNotFound, category, jamfID)
	}
	if err != nil {
		return false, err
	}
	if itemtype == "" {
		itemtype = p.Itemtype
	}
	return e.Import(ctx, itemtype, category, jamfID)
}

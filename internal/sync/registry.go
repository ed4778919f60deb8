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
	"github.com/tomtom215/jamfsync/internal/models"
)

// LookupLink returns the device link of a local item, or ErrNotLinked.
func (e *Engine) LookupLink(ctx context.Context, itemtype string, id int64) (*models.DeviceLink, error) {
	link, err := e.db.GetDeviceLinkByItem(ctx, itemtype, id)
	if errors.Is(err, database.ErrLinkNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotLinked, itemtype, id)
	}
	return link, err
}

// LookupRemote returns the device link of a Jamf device, or ErrNotLinked.
func (e *Engine) LookupRemote(ctx context.Context, category string, jamfID int64) (*models.DeviceLink, error) {
	link, err := e.db.GetDeviceLinkByRemote(ctx, category, jamfID)
	if errors.Is(err, database.ErrLinkNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotLinked, category, jamfID)
	}
	return link, err
}

// Merge links an existing local item to a Jamf device and runs its first
// sync. Neither side may be linked already.
func (e *Engine) Merge(ctx context.Context, itemtype string, id int64, category string, jamfID int64) (Outcomes, error) {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	ctx = logging.ContextWithDevice(ctx, category, jamfID)

	desc, err := descriptorFor(category)
	if err != nil {
		return nil, err
	}
	if !desc.supports(itemtype) {
		return nil, fmt.Errorf("%w: %s as %s", ErrUnsupportedItemtype, category, itemtype)
	}

	unlock := e.devices.Lock(deviceKey(category, jamfID))
	defer unlock()

	item, err := e.db.GetItem(ctx, itemtype, id)
	if errors.Is(err, database.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrItemNotFound, itemtype, id)
	}
	if err != nil {
		return nil, err
	}

	if _, err := e.db.GetDeviceLinkByItem(ctx, itemtype, id); err == nil {
		return nil, fmt.Errorf("%w: %s %d", ErrAlreadyLinked, itemtype, id)
	} else if !errors.Is(err, database.ErrLinkNotFound) {
		return nil, err
	}
	if _, err := e.db.GetDeviceLinkByRemote(ctx, category, jamfID); err == nil {
		return nil, fmt.Errorf("%w: %s %d", ErrAlreadyLinked, category, jamfID)
	} else if !errors.Is(err, database.ErrLinkNotFound) {
		return nil, err
	}

	record, err := e.fetchRecord(ctx, category, jamfID)
	if err != nil {
		return nil, err
	}

	var outcomes Outcomes
	err = e.db.WithTx(ctx, func(s *database.Store) error {
		var runErr error
		outcomes, runErr = e.runSync(ctx, runInput{
			store:  s,
			desc:   desc,
			item:   item,
			jamfID: jamfID,
			record: record,
		})
		if runErr != nil {
			return runErr
		}
		_, err := s.DeletePendingImport(ctx, category, jamfID)
		return err
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("itemtype", itemtype).Int64("items_id", id).Msg("Merge failed")
		return outcomes, err
	}

	logging.Ctx(ctx).Info().Str("itemtype", itemtype).Int64("items_id", id).Msg("Item merged with Jamf device")
	ev := itemEvent(events.DeviceLinked, category, jamfID, itemtype, id)
	ev.Name = item.Name
	ev.Tasks = outcomes.taskMap()
	e.emit(ctx, ev)
	return outcomes, nil
}

// Unmerge removes the link of a local item and its mirrored extension
// attribute values. The item itself is kept.
func (e *Engine) Unmerge(ctx context.Context, itemtype string, id int64) error {
	link, err := e.LookupLink(ctx, itemtype, id)
	if err != nil {
		return err
	}

	unlock := e.devices.Lock(deviceKey(link.Category, link.JamfID))
	defer unlock()

	err = e.db.WithTx(ctx, func(s *database.Store) error {
		if err := s.DeleteExtensionAttributeValues(ctx, itemtype, id); err != nil {
			return err
		}
		return s.DeleteDeviceLink(ctx, itemtype, id)
	})
	if errors.Is(err, database.ErrLinkNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotLinked, itemtype, id)
	}
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Str("itemtype", itemtype).Int64("items_id", id).
		Str("category", link.Category).Int64("jamf_id", link.JamfID).
		Msg("Item unlinked from Jamf device")
	e.emit(ctx, itemEvent(events.DeviceUnlinked, link.Category, link.JamfID, itemtype, id))
	return nil
}

// DeleteItem removes a local item with its link, extension attribute values
// and auxiliary fields.
func (e *Engine) DeleteItem(ctx context.Context, itemtype string, id int64) error {
	ev := itemEvent(events.DeviceDeleted, "", 0, itemtype, id)
	if link, err := e.db.GetDeviceLinkByItem(ctx, itemtype, id); err == nil {
		ev.Category, ev.JamfID = link.Category, link.JamfID
	}

	err := e.db.WithTx(ctx, func(s *database.Store) error {
		return s.DeleteItem(ctx, itemtype, id)
	})
	if errors.Is(err, database.ErrItemNotFound) {
		return fmt.Errorf("%w: %s %d", ErrItemNotFound, itemtype, id)
	}
	if err != nil {
		return err
	}
	e.emit(ctx, ev)
	return nil
}

// ListPending returns the queued import candidates of category, or of every
// category when it is empty.
func (e *Engine) ListPending(ctx context.Context, category string) ([]models.PendingImport, error) {
	if category != "" {
		if _, err := descriptorFor(category); err != nil {
			return nil, err
		}
	}
	return e.db.ListPendingImports(ctx, category)
}

// DismissPending removes a candidate from the queue without importing it.
// The next discovery pass queues it again.
func (e *Engine) DismissPending(ctx context.Context, category string, jamfID int64) error {
	deleted, err := e.db.DeletePendingImport(ctx, category, jamfID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s %d", ErrPendingNotFound, category, jamfID)
	}
	return nil
}

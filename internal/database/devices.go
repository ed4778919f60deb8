// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/jamfsync/internal/database/query"
	"github.com/tomtom215/jamfsync/internal/models"
)

// LinkColumns is the set of jamf_devices bookkeeping columns a sync changeset
// may assign. Identity columns are deliberately absent.
var LinkColumns = map[string]bool{
	"udid":                    true,
	"last_inventory":          true,
	"entry_date":              true,
	"enroll_date":             true,
	"import_date":             true,
	"sync_date":               true,
	"managed":                 true,
	"supervised":              true,
	"shared":                  true,
	"activation_lock_enabled": true,
	"lost_mode_enabled":       true,
	"lost_mode_enforced":      true,
	"lost_mode_enable_issued": true,
	"lost_mode_message":       true,
	"lost_mode_phone":         true,
	"lost_location_latitude":  true,
	"lost_location_longitude": true,
	"lost_location_altitude":  true,
	"lost_location_speed":     true,
	"lost_location_date":      true,
}

const linkSelectColumns = `id, itemtype, items_id, category, jamf_id, udid, last_inventory, entry_date,
	enroll_date, import_date, sync_date, managed, supervised, shared, activation_lock_enabled,
	lost_mode_enabled, lost_mode_enforced, lost_mode_enable_issued, lost_mode_message, lost_mode_phone,
	lost_location_latitude, lost_location_longitude, lost_location_altitude, lost_location_speed,
	lost_location_date`

func scanLink(row interface{ Scan(...any) error }) (*models.DeviceLink, error) {
	var (
		l                                                     models.DeviceLink
		lastInv, entry, enroll, imported, synced, issued, lld sql.NullTime
	)
	err := row.Scan(&l.ID, &l.Itemtype, &l.ItemsID, &l.Category, &l.JamfID, &l.UDID, &lastInv, &entry,
		&enroll, &imported, &synced, &l.Managed, &l.Supervised, &l.Shared, &l.ActivationLockEnabled,
		&l.LostModeEnabled, &l.LostModeEnforced, &issued, &l.LostModeMessage, &l.LostModePhone,
		&l.LostLocationLatitude, &l.LostLocationLongitude, &l.LostLocationAltitude, &l.LostLocationSpeed,
		&lld)
	if err != nil {
		return nil, err
	}
	l.LastInventory = nullTimePtr(lastInv)
	l.EntryDate = nullTimePtr(entry)
	l.EnrollDate = nullTimePtr(enroll)
	l.ImportDate = nullTimePtr(imported)
	l.SyncDate = nullTimePtr(synced)
	l.LostModeEnableIssued = nullTimePtr(issued)
	l.LostLocationDate = nullTimePtr(lld)
	return &l, nil
}

// CreateDeviceLink inserts a link. It returns ErrLinkExists when either the
// local item or the remote device is already linked.
func (s *Store) CreateDeviceLink(ctx context.Context, l *models.DeviceLink) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO jamf_devices (itemtype, items_id, category, jamf_id, udid, import_date)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		l.Itemtype, l.ItemsID, l.Category, l.JamfID, l.UDID, timeArg(l.ImportDate)).Scan(&id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, ErrLinkExists
		}
		return 0, fmt.Errorf("failed to create device link: %w", err)
	}
	l.ID = id
	return id, nil
}

// UpdateDeviceLinkFields applies bookkeeping fields to a link. Column names
// must be in LinkColumns.
func (s *Store) UpdateDeviceLinkFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set, args, err := buildSet(fields, LinkColumns)
	if err != nil {
		return err
	}
	args = append(args, id)

	res, err := s.exec(ctx, "UPDATE", "jamf_devices", `UPDATE jamf_devices SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update device link %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// GetDeviceLinkByItem returns the link of a local item, or ErrLinkNotFound.
func (s *Store) GetDeviceLinkByItem(ctx context.Context, itemtype string, itemsID int64) (*models.DeviceLink, error) {
	return s.getLink(ctx, `itemtype = ? AND items_id = ?`, itemtype, itemsID)
}

// GetDeviceLinkByRemote returns the link of a remote device, or ErrLinkNotFound.
func (s *Store) GetDeviceLinkByRemote(ctx context.Context, category string, jamfID int64) (*models.DeviceLink, error) {
	return s.getLink(ctx, `category = ? AND jamf_id = ?`, category, jamfID)
}

func (s *Store) getLink(ctx context.Context, where string, args ...any) (*models.DeviceLink, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+linkSelectColumns+` FROM jamf_devices WHERE `+where, args...)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device link: %w", err)
	}
	return l, nil
}

// DeleteDeviceLink removes the link of a local item.
func (s *Store) DeleteDeviceLink(ctx context.Context, itemtype string, itemsID int64) error {
	res, err := s.exec(ctx, "DELETE", "jamf_devices",
		`DELETE FROM jamf_devices WHERE itemtype = ? AND items_id = ?`, itemtype, itemsID)
	if err != nil {
		return fmt.Errorf("failed to delete device link: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// LinkFilter selects device links.
type LinkFilter struct {
	Category string
	// DueBefore keeps only links never synced or last synced before this time.
	DueBefore *time.Time
}

// ListDeviceLinks returns links matching f ordered by sync_date, never-synced
// links first.
func (s *Store) ListDeviceLinks(ctx context.Context, f LinkFilter) ([]models.DeviceLink, error) {
	where, args := query.NewWhereBuilder().
		AddEquals("category", f.Category).
		AddNullOrBefore("sync_date", f.DueBefore).
		Build()

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+linkSelectColumns+` FROM jamf_devices WHERE `+where+` ORDER BY sync_date NULLS FIRST, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list device links: %w", err)
	}
	defer closeWithLog(rows, "device link rows")

	var links []models.DeviceLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device link: %w", err)
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// LinkedJamfIDs returns the set of remote ids already linked in category.
func (s *Store) LinkedJamfIDs(ctx context.Context, category string) (map[int64]struct{}, error) {
	return s.idSet(ctx, `SELECT jamf_id FROM jamf_devices WHERE category = ?`, category)
}

func (s *Store) idSet(ctx context.Context, q string, args ...any) (map[int64]struct{}, error) {
	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer closeWithLog(rows, "id rows")

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

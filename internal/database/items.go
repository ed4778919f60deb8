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

	"github.com/tomtom215/jamfsync/internal/models"
)

// ItemColumns is the set of glpi_items columns a sync changeset may assign.
var ItemColumns = map[string]bool{
	"name":         true,
	"serial":       true,
	"otherserial":  true,
	"uuid":         true,
	"contact":      true,
	"contact_num":  true,
	"users_id":     true,
	"comment":      true,
	"manufacturer": true,
	"model":        true,
	"os_name":      true,
	"os_version":   true,
	"os_build":     true,
}

const itemSelectColumns = `id, itemtype, name, serial, otherserial, uuid, contact, contact_num, users_id,
	comment, manufacturer, model, os_name, os_version, os_build, is_dynamic, is_deleted, date_creation, date_mod`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var it models.Item
	err := row.Scan(&it.ID, &it.Itemtype, &it.Name, &it.Serial, &it.OtherSerial, &it.UUID, &it.Contact,
		&it.ContactNum, &it.UsersID, &it.Comment, &it.Manufacturer, &it.Model, &it.OSName, &it.OSVersion,
		&it.OSBuild, &it.IsDynamic, &it.IsDeleted, &it.DateCreation, &it.DateMod)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem inserts a new local item and returns its id.
func (s *Store) CreateItem(ctx context.Context, it *models.Item) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO glpi_items (itemtype, name, serial, otherserial, uuid, contact, contact_num, users_id,
			comment, manufacturer, model, os_name, os_version, os_build, is_dynamic, is_deleted,
			date_creation, date_mod)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, false, ?, ?)
		RETURNING id`,
		it.Itemtype, it.Name, it.Serial, it.OtherSerial, it.UUID, it.Contact, it.ContactNum, it.UsersID,
		it.Comment, it.Manufacturer, it.Model, it.OSName, it.OSVersion, it.OSBuild, it.IsDynamic,
		now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", it.Itemtype, err)
	}
	it.ID = id
	it.DateCreation, it.DateMod = now, now
	return id, nil
}

// GetItem returns the local item, or ErrItemNotFound.
func (s *Store) GetItem(ctx context.Context, itemtype string, id int64) (*models.Item, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+itemSelectColumns+` FROM glpi_items WHERE itemtype = ? AND id = ? AND is_deleted = false`,
		itemtype, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", itemtype, id, err)
	}
	return it, nil
}

// UpdateItemFields applies fields to the item in one UPDATE and bumps
// date_mod. Column names must be in ItemColumns.
func (s *Store) UpdateItemFields(ctx context.Context, itemtype string, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set, args, err := buildSet(fields, ItemColumns)
	if err != nil {
		return err
	}
	args = append(args, time.Now().UTC(), itemtype, id)

	res, err := s.exec(ctx, "UPDATE", "glpi_items",
		`UPDATE glpi_items SET `+set+`, date_mod = ? WHERE itemtype = ? AND id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", itemtype, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// FindItemIDsByUUID returns non-deleted items of itemtype whose UDID matches,
// looking at both the native uuid column and the "uuid" auxiliary field.
// Matching is case-insensitive.
func (s *Store) FindItemIDsByUUID(ctx context.Context, itemtype, uuid string) ([]int64, error) {
	if uuid == "" {
		return nil, nil
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT id FROM glpi_items
		WHERE itemtype = ? AND is_deleted = false
		  AND (lower(uuid) = lower(?)
		       OR id IN (SELECT items_id FROM item_extra_fields
		                 WHERE itemtype = ? AND field = 'uuid' AND lower(value) = lower(?)))
		ORDER BY id`,
		itemtype, uuid, itemtype, uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to find items by uuid: %w", err)
	}
	defer closeWithLog(rows, "item rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteItem removes an item together with its device link, extension
// attribute values and auxiliary fields. Run it inside WithTx.
func (s *Store) DeleteItem(ctx context.Context, itemtype string, id int64) error {
	cascade := []struct{ table, query string }{
		{"jamf_items_extensionattributes", `DELETE FROM jamf_items_extensionattributes WHERE itemtype = ? AND items_id = ?`},
		{"item_extra_fields", `DELETE FROM item_extra_fields WHERE itemtype = ? AND items_id = ?`},
		{"jamf_devices", `DELETE FROM jamf_devices WHERE itemtype = ? AND items_id = ?`},
	}
	for _, c := range cascade {
		if _, err := s.exec(ctx, "DELETE", c.table, c.query, itemtype, id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", c.table, err)
		}
	}

	res, err := s.exec(ctx, "DELETE", "glpi_items", `DELETE FROM glpi_items WHERE itemtype = ? AND id = ?`, itemtype, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", itemtype, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// SetExtraField upserts one auxiliary field.
func (s *Store) SetExtraField(ctx context.Context, itemtype string, id int64, field, value string) error {
	_, err := s.exec(ctx, "UPSERT", "item_extra_fields", `
		INSERT INTO item_extra_fields (itemtype, items_id, field, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (itemtype, items_id, field) DO UPDATE SET value = excluded.value`,
		itemtype, id, field, value)
	if err != nil {
		return fmt.Errorf("failed to set field %s on %s %d: %w", field, itemtype, id, err)
	}
	return nil
}

// GetExtraFields returns all auxiliary fields of an item.
func (s *Store) GetExtraFields(ctx context.Context, itemtype string, id int64) (map[string]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT field, value FROM item_extra_fields WHERE itemtype = ? AND items_id = ?`, itemtype, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query extra fields: %w", err)
	}
	defer closeWithLog(rows, "extra field rows")

	out := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan extra field: %w", err)
		}
		out[field] = value
	}
	return out, rows.Err()
}

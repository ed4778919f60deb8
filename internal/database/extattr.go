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

	"github.com/tomtom215/jamfsync/internal/database/query"
	"github.com/tomtom215/jamfsync/internal/models"
)

// UpsertExtensionAttribute inserts or refreshes a definition keyed by
// (category, jamf_id) and returns its local id.
func (s *Store) UpsertExtensionAttribute(ctx context.Context, ea *models.ExtensionAttribute) (int64, error) {
	_, err := s.exec(ctx, "UPSERT", "jamf_extensionattributes", `
		INSERT INTO jamf_extensionattributes (category, jamf_id, itemtype, name, description, data_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (category, jamf_id) DO UPDATE SET
			itemtype = excluded.itemtype,
			name = excluded.name,
			description = excluded.description,
			data_type = excluded.data_type`,
		ea.Category, ea.JamfID, ea.Itemtype, ea.Name, ea.Description, ea.DataType)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert extension attribute %d: %w", ea.JamfID, err)
	}

	stored, err := s.GetExtensionAttribute(ctx, ea.Category, ea.JamfID)
	if err != nil {
		return 0, err
	}
	ea.ID = stored.ID
	return stored.ID, nil
}

// GetExtensionAttribute returns a definition by remote key, or
// ErrExtensionAttributeNotFound.
func (s *Store) GetExtensionAttribute(ctx context.Context, category string, jamfID int64) (*models.ExtensionAttribute, error) {
	var ea models.ExtensionAttribute
	err := s.q.QueryRowContext(ctx, `
		SELECT id, category, jamf_id, itemtype, name, description, data_type
		FROM jamf_extensionattributes WHERE category = ? AND jamf_id = ?`, category, jamfID).
		Scan(&ea.ID, &ea.Category, &ea.JamfID, &ea.Itemtype, &ea.Name, &ea.Description, &ea.DataType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExtensionAttributeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extension attribute: %w", err)
	}
	return &ea, nil
}

// ListExtensionAttributes returns the definitions of a category ("" for all).
func (s *Store) ListExtensionAttributes(ctx context.Context, category string) ([]models.ExtensionAttribute, error) {
	where, args := query.NewWhereBuilder().AddEquals("category", category).Build()
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, category, jamf_id, itemtype, name, description, data_type
		FROM jamf_extensionattributes WHERE `+where+` ORDER BY category, jamf_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list extension attributes: %w", err)
	}
	defer closeWithLog(rows, "extension attribute rows")

	var out []models.ExtensionAttribute
	for rows.Next() {
		var ea models.ExtensionAttribute
		if err := rows.Scan(&ea.ID, &ea.Category, &ea.JamfID, &ea.Itemtype, &ea.Name, &ea.Description, &ea.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan extension attribute: %w", err)
		}
		out = append(out, ea)
	}
	return out, rows.Err()
}

// UpsertExtensionAttributeValue stores one item's value for a definition.
func (s *Store) UpsertExtensionAttributeValue(ctx context.Context, v *models.ExtensionAttributeValue) error {
	_, err := s.exec(ctx, "UPSERT", "jamf_items_extensionattributes", `
		INSERT INTO jamf_items_extensionattributes (itemtype, items_id, definition_id, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (itemtype, items_id, definition_id) DO UPDATE SET value = excluded.value`,
		v.Itemtype, v.ItemsID, v.DefinitionID, v.Value)
	if err != nil {
		return fmt.Errorf("failed to upsert extension attribute value: %w", err)
	}
	return nil
}

// GetExtensionAttributeValues returns an item's values joined with their
// definition names.
func (s *Store) GetExtensionAttributeValues(ctx context.Context, itemtype string, itemsID int64) ([]models.ExtensionAttributeValue, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT v.itemtype, v.items_id, v.definition_id, COALESCE(d.name, ''), v.value
		FROM jamf_items_extensionattributes v
		LEFT JOIN jamf_extensionattributes d ON d.id = v.definition_id
		WHERE v.itemtype = ? AND v.items_id = ?
		ORDER BY v.definition_id`, itemtype, itemsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query extension attribute values: %w", err)
	}
	defer closeWithLog(rows, "extension attribute value rows")

	var out []models.ExtensionAttributeValue
	for rows.Next() {
		var v models.ExtensionAttributeValue
		if err := rows.Scan(&v.Itemtype, &v.ItemsID, &v.DefinitionID, &v.Name, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan extension attribute value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteExtensionAttributeValues removes all values of an item.
func (s *Store) DeleteExtensionAttributeValues(ctx context.Context, itemtype string, itemsID int64) error {
	if _, err := s.exec(ctx, "DELETE", "jamf_items_extensionattributes",
		`DELETE FROM jamf_items_extensionattributes WHERE itemtype = ? AND items_id = ?`, itemtype, itemsID); err != nil {
		return fmt.Errorf("failed to delete extension attribute values: %w", err)
	}
	return nil
}

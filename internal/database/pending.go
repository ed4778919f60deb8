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

// CreatePendingImport queues a discovered device. It returns false when the
// device is already queued.
func (s *Store) CreatePendingImport(ctx context.Context, p *models.PendingImport) (bool, error) {
	if p.DateDiscover.IsZero() {
		p.DateDiscover = time.Now().UTC()
	}
	res, err := s.exec(ctx, "INSERT", "jamf_imports", `
		INSERT INTO jamf_imports (category, jamf_id, name, udid, serial, model_identifier, itemtype, date_discover)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (category, jamf_id) DO NOTHING`,
		p.Category, p.JamfID, p.Name, p.UDID, p.Serial, p.ModelIdentifier, p.Itemtype, p.DateDiscover.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to queue pending import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// GetPendingImport returns one candidate, or ErrPendingImportNotFound.
func (s *Store) GetPendingImport(ctx context.Context, category string, jamfID int64) (*models.PendingImport, error) {
	var p models.PendingImport
	err := s.q.QueryRowContext(ctx, `
		SELECT category, jamf_id, name, udid, serial, model_identifier, itemtype, date_discover
		FROM jamf_imports WHERE category = ? AND jamf_id = ?`, category, jamfID).
		Scan(&p.Category, &p.JamfID, &p.Name, &p.UDID, &p.Serial, &p.ModelIdentifier, &p.Itemtype, &p.DateDiscover)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPendingImportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending import: %w", err)
	}
	return &p, nil
}

// ListPendingImports returns the queued candidates of a category ("" for
// all), oldest first.
func (s *Store) ListPendingImports(ctx context.Context, category string) ([]models.PendingImport, error) {
	where, args := query.NewWhereBuilder().AddEquals("category", category).Build()
	rows, err := s.q.QueryContext(ctx, `
		SELECT category, jamf_id, name, udid, serial, model_identifier, itemtype, date_discover
		FROM jamf_imports WHERE `+where+` ORDER BY date_discover, category, jamf_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending imports: %w", err)
	}
	defer closeWithLog(rows, "pending import rows")

	var out []models.PendingImport
	for rows.Next() {
		var p models.PendingImport
		if err := rows.Scan(&p.Category, &p.JamfID, &p.Name, &p.UDID, &p.Serial, &p.ModelIdentifier,
			&p.Itemtype, &p.DateDiscover); err != nil {
			return nil, fmt.Errorf("failed to scan pending import: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PendingJamfIDs returns the set of remote ids queued in category.
func (s *Store) PendingJamfIDs(ctx context.Context, category string) (map[int64]struct{}, error) {
	return s.idSet(ctx, `SELECT jamf_id FROM jamf_imports WHERE category = ?`, category)
}

// DeletePendingImport removes a candidate. It returns false when nothing was
// queued under that key.
func (s *Store) DeletePendingImport(ctx context.Context, category string, jamfID int64) (bool, error) {
	res, err := s.exec(ctx, "DELETE", "jamf_imports",
		`DELETE FROM jamf_imports WHERE category = ? AND jamf_id = ?`, category, jamfID)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

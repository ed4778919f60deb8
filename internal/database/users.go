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

	"github.com/tomtom215/jamfsync/internal/models"
)

// CreateUser inserts a local user and returns its id.
func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO glpi_users (name, realname, email) VALUES (?, ?, ?) RETURNING id`,
		u.Name, u.Realname, u.Email).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user %s: %w", u.Name, err)
	}
	u.ID = id
	return id, nil
}

// FindUser looks a user up by login name first, then by email, both
// case-insensitively. Empty criteria are skipped.
func (s *Store) FindUser(ctx context.Context, name, email string) (*models.User, error) {
	lookups := []struct{ column, value string }{{"name", name}, {"email", email}}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		var u models.User
		err := s.q.QueryRowContext(ctx,
			`SELECT id, name, realname, email FROM glpi_users WHERE lower(`+l.column+`) = lower(?) ORDER BY id LIMIT 1`,
			l.value).Scan(&u.ID, &u.Name, &u.Realname, &u.Email)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find user by %s: %w", l.column, err)
		}
		return &u, nil
	}
	return nil, ErrUserNotFound
}

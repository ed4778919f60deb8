// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

func sortNewestFirst(backups []Backup) {
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
}

// Prune removes the oldest backups beyond the configured retain count and
// returns how many were removed.
func (m *Manager) Prune() (int, error) {
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= m.cfg.Retain {
		return 0, nil
	}

	removed := 0
	var errs []error
	for _, b := range backups[m.cfg.Retain:] {
		path := filepath.Join(m.cfg.Dir, b.FileName)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", b.FileName, err))
			continue
		}
		if err := os.Remove(path + sidecarSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s metadata: %w", b.FileName, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

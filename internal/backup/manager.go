// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

const (
	archivePrefix = "jamfsync-"
	archiveSuffix = ".tar.gz"
	sidecarSuffix = ".json"
)

// Database is the part of *database.DB a backup needs.
type Database interface {
	Path() string
	Checkpoint(ctx context.Context) error
}

// Manager creates, lists, verifies and prunes backups.
type Manager struct {
	cfg     config.BackupConfig
	db      Database
	running sync.Mutex
	now     func() time.Time
}

// NewManager creates the backup directory and returns a manager for db.
func NewManager(cfg *config.BackupConfig, db Database) (*Manager, error) {
	if db.Path() == "" || db.Path() == ":memory:" {
		return nil, ErrInMemoryDatabase
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Manager{cfg: *cfg, db: db, now: time.Now}, nil
}

// Run is the scheduled backup job.
func (m *Manager) Run(ctx context.Context) (int, error) {
	if _, err := m.Create(ctx, TriggerScheduled); err != nil {
		return 0, err
	}
	return 1, nil
}

// Create writes a new archive and prunes old ones.
func (m *Manager) Create(ctx context.Context, trigger Trigger) (*Backup, error) {
	if !m.running.TryLock() {
		return nil, ErrBackupRunning
	}
	defer m.running.Unlock()

	start := m.now()
	b := &Backup{
		ID:        uuid.New().String(),
		CreatedAt: start.UTC(),
		Trigger:   trigger,
	}
	b.FileName = fmt.Sprintf("%s%s-%s%s", archivePrefix, start.UTC().Format("20060102T150405Z"), b.ID[:8], archiveSuffix)

	if err := m.db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint before backup failed, archive may miss recent writes")
	}

	path := filepath.Join(m.cfg.Dir, b.FileName)
	if err := m.writeArchive(ctx, path, b); err != nil {
		metrics.RecordBackup(string(trigger), 0, err)
		return nil, err
	}
	b.Duration = m.now().Sub(start)
	if err := writeSidecar(path, b); err != nil {
		metrics.RecordBackup(string(trigger), 0, err)
		return nil, err
	}
	metrics.RecordBackup(string(trigger), b.Size, nil)

	logging.Info().
		Str("backup_id", b.ID).
		Str("file", b.FileName).
		Int64("size", b.Size).
		Dur("duration", b.Duration).
		Str("trigger", string(trigger)).
		Msg("Backup created")

	if removed, err := m.Prune(); err != nil {
		logging.Warn().Err(err).Msg("Backup retention failed")
	} else if removed > 0 {
		logging.Info().Int("removed", removed).Int("retain", m.cfg.Retain).Msg("Old backups removed")
	}
	return b, nil
}

// List returns the recorded backups, newest first.
func (m *Manager) List() ([]Backup, error) {
	matches, err := filepath.Glob(filepath.Join(m.cfg.Dir, archivePrefix+"*"+archiveSuffix+sidecarSuffix))
	if err != nil {
		return nil, err
	}
	backups := make([]Backup, 0, len(matches))
	for _, path := range matches {
		b, err := readSidecar(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Skipping unreadable backup metadata")
			continue
		}
		backups = append(backups, *b)
	}
	sortNewestFirst(backups)
	return backups, nil
}

// Get returns the backup with id.
func (m *Manager) Get(id string) (*Backup, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	for i := range backups {
		if backups[i].ID == id {
			return &backups[i], nil
		}
	}
	return nil, ErrBackupNotFound
}

func writeSidecar(archivePath string, b *Backup) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	tmp := archivePath + sidecarSuffix + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write backup metadata: %w", err)
	}
	return os.Rename(tmp, archivePath+sidecarSuffix)
}

func readSidecar(path string) (*Backup, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the backup directory
	if err != nil {
		return nil, err
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if b.FileName != strings.TrimSuffix(filepath.Base(path), sidecarSuffix) {
		return nil, fmt.Errorf("metadata names %q", b.FileName)
	}
	return &b, nil
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package backup

import (
	"errors"
	"time"
)

// Trigger says what started a backup.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

var (
	// ErrBackupRunning is returned when a backup is already in progress.
	ErrBackupRunning = errors.New("a backup is already running")

	// ErrBackupNotFound is returned for an unknown backup ID.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrInMemoryDatabase is returned when the store has no file to copy.
	ErrInMemoryDatabase = errors.New("in-memory database cannot be backed up")

	// ErrChecksumMismatch is returned by Verify when archive contents differ
	// from the recorded checksums.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

// Backup describes one archive.
type Backup struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Trigger   Trigger       `json:"trigger"`
	FileName  string        `json:"file_name"`
	Size      int64         `json:"size"`
	Duration  time.Duration `json:"duration_ns"`
	Files     []File        `json:"files"`
}

// File is one member of an archive.
type File struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"sha256"`
}

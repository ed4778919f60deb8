// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/jamfsync/internal/config"
)

type fakeDB struct {
	path          string
	checkpoints   int
	checkpointErr error
}

func (f *fakeDB) Path() string { return f.path }

func (f *fakeDB) Checkpoint(context.Context) error {
	f.checkpoints++
	return f.checkpointErr
}

func newTestManager(t *testing.T, retain int) (*Manager, *fakeDB) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "jamfsync.duckdb")
	if err := os.WriteFile(dbPath, []byte("duckdb file contents"), 0o600); err != nil {
		t.Fatal(err)
	}
	db := &fakeDB{path: dbPath}
	m, err := NewManager(&config.BackupConfig{
		Dir:              filepath.Join(dir, "backups"),
		Retain:           retain,
		CompressionLevel: -1,
	}, db)
	if err != nil {
		t.Fatal(err)
	}

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return m, db
}

func TestCreateAndVerify(t *testing.T) {
	m, db := newTestManager(t, 5)
	if err := os.WriteFile(db.path+".wal", []byte("wal"), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := m.Create(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if db.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", db.checkpoints)
	}
	if len(b.Files) != 2 || b.Files[0].Name != dbMember || b.Files[1].Name != walMember {
		t.Errorf("files = %+v", b.Files)
	}
	if b.Size == 0 {
		t.Error("archive size should be recorded")
	}
	if _, err := os.Stat(filepath.Join(m.cfg.Dir, b.FileName+".partial")); !os.IsNotExist(err) {
		t.Error("partial file should be renamed away")
	}

	if err := m.Verify(b.ID); err != nil {
		t.Errorf("Verify: %v", err)
	}

	got, err := m.Get(b.ID)
	if err != nil || got.Trigger != TriggerManual || got.FileName != b.FileName {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}

func TestCreate_CheckpointFailureStillBacksUp(t *testing.T) {
	m, db := newTestManager(t, 5)
	db.checkpointErr = errors.New("database is locked")

	if n, err := m.Run(context.Background()); err != nil || n != 1 {
		t.Fatalf("Run = %d, %v", n, err)
	}
	backups, _ := m.List()
	if len(backups) != 1 || backups[0].Trigger != TriggerScheduled {
		t.Errorf("backups = %+v", backups)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	m, _ := newTestManager(t, 5)
	b, err := m.Create(context.Background(), TriggerManual)
	if err != nil {
		t.Fatal(err)
	}

	sidecar := filepath.Join(m.cfg.Dir, b.FileName+sidecarSuffix)
	b.Files[0].Checksum = "0000"
	if err := writeSidecar(filepath.Join(m.cfg.Dir, b.FileName), b); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(sidecar); err != nil {
		t.Fatal(err)
	}
	if err := m.Verify(b.ID); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Verify = %v, want checksum mismatch", err)
	}
}

func TestPrune_KeepsNewest(t *testing.T) {
	m, _ := newTestManager(t, 2)

	var ids []string
	for i := 0; i < 4; i++ {
		b, err := m.Create(context.Background(), TriggerScheduled)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Fatalf("kept %d backups, want 2", len(backups))
	}
	if backups[0].ID != ids[3] || backups[1].ID != ids[2] {
		t.Errorf("kept %s, %s; want the two newest", backups[0].ID, backups[1].ID)
	}

	archives, _ := filepath.Glob(filepath.Join(m.cfg.Dir, "*"+archiveSuffix))
	if len(archives) != 2 {
		t.Errorf("archives on disk = %d, want 2", len(archives))
	}
}

func TestCreate_OneAtATime(t *testing.T) {
	m, _ := newTestManager(t, 2)
	m.running.Lock()
	defer m.running.Unlock()

	if _, err := m.Create(context.Background(), TriggerManual); !errors.Is(err, ErrBackupRunning) {
		t.Errorf("Create while running = %v", err)
	}
}

func TestNewManager_InMemory(t *testing.T) {
	_, err := NewManager(&config.BackupConfig{Dir: t.TempDir()}, &fakeDB{path: ":memory:"})
	if !errors.Is(err, ErrInMemoryDatabase) {
		t.Errorf("NewManager(:memory:) = %v", err)
	}
}

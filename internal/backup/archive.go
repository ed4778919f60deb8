// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

const (
	dbMember       = "database/jamfsync.duckdb"
	walMember      = "database/jamfsync.duckdb.wal"
	metadataMember = "backup-metadata.json"
)

// writeArchive streams the database files into a tar.gz at path. The archive
// is written to a temporary name and renamed once complete.
func (m *Manager) writeArchive(ctx context.Context, path string, b *Backup) (err error) {
	tmp := path + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) //nolint:gosec // path is under the backup directory
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer func() {
		if err != nil {
			out.Close()    //nolint:errcheck,gosec // already failing
			os.Remove(tmp) //nolint:errcheck,gosec // already failing
		}
	}()

	gz, err := gzip.NewWriterLevel(out, m.cfg.CompressionLevel)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	dbPath := m.db.Path()
	if err := addFile(ctx, tw, dbPath, dbMember, b); err != nil {
		return fmt.Errorf("add database file: %w", err)
	}
	if _, statErr := os.Stat(dbPath + ".wal"); statErr == nil {
		if err := addFile(ctx, tw, dbPath+".wal", walMember, b); err != nil {
			return fmt.Errorf("add WAL file: %w", err)
		}
	}
	if err := addMetadata(tw, b); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close backup file: %w", err)
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return err
	}
	b.Size = info.Size()
	return os.Rename(tmp, path)
}

func addFile(ctx context.Context, tw *tar.Writer, src, member string, b *Backup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(src) //nolint:gosec // src is the configured database path
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read only

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:    member,
		Mode:    0o640,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(tw, hasher), io.LimitReader(f, info.Size()))
	if err != nil {
		return err
	}
	if n != info.Size() {
		return fmt.Errorf("%s shrank while copying", filepath.Base(src))
	}
	b.Files = append(b.Files, File{Name: member, Size: n, Checksum: hex.EncodeToString(hasher.Sum(nil))})
	return nil
}

func addMetadata(tw *tar.Writer, b *Backup) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup metadata: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: metadataMember, Mode: 0o640, Size: int64(len(data)), ModTime: b.CreatedAt}); err != nil {
		return err
	}
	_, err = tw.Write(data)
	return err
}

// Verify reads the archive of backup id and compares each member against the
// recorded checksums.
func (m *Manager) Verify(id string) error {
	b, err := m.Get(id)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(m.cfg.Dir, b.FileName))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close() //nolint:errcheck // read only

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close() //nolint:errcheck // read only

	want := make(map[string]string, len(b.Files))
	for _, file := range b.Files {
		want[file.Name] = file.Checksum
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		sum, ok := want[hdr.Name]
		if !ok {
			continue
		}
		hasher := sha256.New()
		if _, err := io.Copy(hasher, tr); err != nil { //nolint:gosec // size bounded by the archive we wrote
			return fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		if hex.EncodeToString(hasher.Sum(nil)) != sum {
			return fmt.Errorf("%w: %s", ErrChecksumMismatch, hdr.Name)
		}
		delete(want, hdr.Name)
	}
	if len(want) > 0 {
		return fmt.Errorf("%w: %d files missing", ErrChecksumMismatch, len(want))
	}
	return nil
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package wal

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/jamfsync/internal/logging"
)

// Compact deletes confirmed entries and pending entries older than the entry
// TTL, then runs value log GC. It returns how many entries it removed, or -1
// when there was nothing to remove.
func (w *BadgerWAL) Compact(ctx context.Context) (int, error) {
	if err := w.checkOpen(); err != nil {
		return 0, err
	}

	confirmed, errConfirmed := w.deleteMatching(ctx, prefixConfirmed, func(*Entry) bool { return true })
	cutoff := time.Now().Add(-w.cfg.EntryTTL)
	expired, errExpired := w.deleteMatching(ctx, prefixPending, func(e *Entry) bool {
		return e.CreatedAt.Before(cutoff)
	})
	walEntriesCompacted.WithLabelValues("confirmed").Add(float64(confirmed))
	walEntriesCompacted.WithLabelValues("expired").Add(float64(expired))

	errGC := w.RunGC()
	w.Stats()

	if err := errors.Join(errConfirmed, errExpired, errGC); err != nil {
		return confirmed + expired, err
	}
	if confirmed+expired == 0 {
		return -1, nil
	}
	logging.Ctx(ctx).Info().
		Int("confirmed", confirmed).
		Int("expired", expired).
		Msg("WAL compaction removed entries")
	return confirmed + expired, nil
}

// deleteMatching removes every entry under prefix for which match is true.
func (w *BadgerWAL) deleteMatching(ctx context.Context, prefix string, match func(*Entry) bool) (int, error) {
	var keys [][]byte
	err := w.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if match(&entry) {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	wb := w.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

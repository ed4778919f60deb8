// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package wal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/logging"
)

const (
	maxBackoff     = 5 * time.Minute
	publishTimeout = 10 * time.Second
)

// Publisher delivers a device event to NATS.
type Publisher interface {
	Publish(ctx context.Context, event *events.DeviceEvent) error
}

// Replayer republishes pending entries.
type Replayer struct {
	wal         *BadgerWAL
	publisher   Publisher
	cfg         config.WALConfig
	leaseHolder string
}

// NewReplayer creates a Replayer that publishes through publisher.
func NewReplayer(w *BadgerWAL, publisher Publisher) *Replayer {
	return &Replayer{
		wal:         w,
		publisher:   publisher,
		cfg:         w.cfg,
		leaseHolder: "replay-" + uuid.NewString()[:8],
	}
}

type replayResult int

const (
	replaySkipped replayResult = iota
	replayPublished
	replayFailed
	replayExpired
	replayMaxRetried
)

// Replay makes one pass over the pending entries. Entries past the TTL or the
// retry limit are dropped. It returns how many entries it published, or -1
// when nothing was pending.
func (r *Replayer) Replay(ctx context.Context) (int, error) {
	entries, err := r.wal.GetPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("get pending entries: %w", err)
	}
	if len(entries) == 0 {
		return -1, nil
	}

	counts := map[replayResult]int{}
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		counts[r.replayEntry(ctx, entry)]++
	}

	if counts[replayFailed]+counts[replayExpired]+counts[replayMaxRetried] > 0 {
		logging.Ctx(ctx).Warn().
			Int("published", counts[replayPublished]).
			Int("failed", counts[replayFailed]).
			Int("expired", counts[replayExpired]).
			Int("max_retried", counts[replayMaxRetried]).
			Msg("WAL replay incomplete")
	}
	return counts[replayPublished], ctx.Err()
}

func (r *Replayer) replayEntry(ctx context.Context, entry *Entry) replayResult {
	claimed, err := r.wal.TryClaim(ctx, entry.ID, r.leaseHolder)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("entry_id", entry.ID).Msg("WAL replay: cannot claim entry")
		return replaySkipped
	}
	if !claimed {
		return replaySkipped
	}

	if time.Since(entry.CreatedAt) > r.cfg.EntryTTL {
		return r.drop(ctx, entry, replayExpired, "expired")
	}
	if entry.Attempts >= r.cfg.MaxRetries {
		return r.drop(ctx, entry, replayMaxRetried, "max_retries")
	}
	if !r.due(entry) {
		if err := r.wal.ReleaseLease(ctx, entry.ID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("entry_id", entry.ID).Msg("WAL replay: release lease failed")
		}
		return replaySkipped
	}

	var event events.DeviceEvent
	if err := entry.UnmarshalPayload(&event); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("entry_id", entry.ID).Msg("WAL replay: undecodable entry")
		return r.drop(ctx, entry, replayMaxRetried, "max_retries")
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	err = r.publisher.Publish(pubCtx, &event)
	cancel()
	if err != nil {
		if uerr := r.wal.UpdateAttempt(ctx, entry.ID, err.Error()); uerr != nil {
			logging.Ctx(ctx).Error().Err(uerr).Str("entry_id", entry.ID).Msg("WAL replay: update attempt failed")
		}
		walReplayed.WithLabelValues("failed").Inc()
		return replayFailed
	}

	if err := r.wal.Confirm(ctx, entry.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("entry_id", entry.ID).Msg("WAL replay: confirm failed")
		return replayFailed
	}
	walReplayed.WithLabelValues("published").Inc()
	return replayPublished
}

func (r *Replayer) drop(ctx context.Context, entry *Entry, result replayResult, reason string) replayResult {
	logging.Ctx(ctx).Warn().
		Str("entry_id", entry.ID).
		Int("attempts", entry.Attempts).
		Str("last_error", entry.LastError).
		Str("reason", reason).
		Msg("WAL replay: dropping device event")
	if err := r.wal.DeleteEntry(ctx, entry.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("entry_id", entry.ID).Msg("WAL replay: delete failed")
	}
	walReplayed.WithLabelValues(reason).Inc()
	return result
}

// due reports whether the backoff since the last attempt has passed. A fresh
// entry waits one base backoff so the publish that wrote it can confirm it.
func (r *Replayer) due(entry *Entry) bool {
	last := entry.LastAttemptAt
	if last.IsZero() {
		last = entry.CreatedAt
	}
	return time.Since(last) >= r.backoff(entry.Attempts)
}

// backoff is RetryBackoff * 2^attempts, capped at maxBackoff.
func (r *Replayer) backoff(attempts int) time.Duration {
	if attempts > 30 {
		return maxBackoff
	}
	d := time.Duration(float64(r.cfg.RetryBackoff) * math.Pow(2, float64(attempts)))
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

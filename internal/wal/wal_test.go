// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package wal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/events"
)

func openTestWAL(t *testing.T) *BadgerWAL {
	t.Helper()
	w, err := Open(&config.WALConfig{
		Enabled:      true,
		Path:         filepath.Join(t.TempDir(), "wal"),
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		EntryTTL:     time.Hour,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// flakyPublisher fails the first failures calls.
type flakyPublisher struct {
	mu        sync.Mutex
	failures  int
	published []*events.DeviceEvent
}

func (p *flakyPublisher) Publish(_ context.Context, event *events.DeviceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures != 0 {
		p.failures--
		return errors.New("nats: no responders available for request")
	}
	p.published = append(p.published, event)
	return nil
}

func TestWriteConfirmCompact(t *testing.T) {
	w := openTestWAL(t)
	ctx := context.Background()

	id, err := w.Write(ctx, events.NewDeviceEvent(events.DeviceSynced, "Computer", 7))
	if err != nil {
		t.Fatal(err)
	}
	if s := w.Stats(); s.PendingCount != 1 || s.TotalWrites != 1 {
		t.Fatalf("after write: %+v", s)
	}

	if err := w.Confirm(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := w.Confirm(ctx, id); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second Confirm = %v, want ErrEntryNotFound", err)
	}
	if s := w.Stats(); s.PendingCount != 0 || s.ConfirmedCount != 1 {
		t.Fatalf("after confirm: %+v", s)
	}

	if n, err := w.Compact(ctx); err != nil || n != 1 {
		t.Errorf("Compact = %d, %v; want 1", n, err)
	}
	if n, err := w.Compact(ctx); err != nil || n != -1 {
		t.Errorf("second Compact = %d, %v; want -1", n, err)
	}
}

func TestWrite_Errors(t *testing.T) {
	w := openTestWAL(t)
	if _, err := w.Write(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Errorf("Write(nil) = %v", err)
	}
	if err := w.Confirm(context.Background(), ""); !errors.Is(err, ErrEmptyEntryID) {
		t.Errorf("Confirm(\"\") = %v", err)
	}
	_ = w.Close()
	if _, err := w.Write(context.Background(), events.NewDeviceEvent(events.DeviceSynced, "Computer", 1)); !errors.Is(err, ErrWALClosed) {
		t.Errorf("Write after Close = %v", err)
	}
}

func TestDurablePublisher_ReplaysFailedPublish(t *testing.T) {
	w := openTestWAL(t)
	ctx := context.Background()
	nats := &flakyPublisher{failures: 1}
	pub := NewDurablePublisher(w, nats)

	event := events.NewDeviceEvent(events.DeviceImported, "MobileDevice", 12)
	if err := pub.Publish(ctx, event); err == nil {
		t.Fatal("Publish should report the NATS failure")
	}

	pending, err := w.GetPending(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %d, %v", len(pending), err)
	}
	if pending[0].Attempts != 1 || pending[0].LastError == "" {
		t.Errorf("entry = %+v, want one recorded attempt", pending[0])
	}

	time.Sleep(10 * time.Millisecond)
	n, err := NewReplayer(w, nats).Replay(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Replay = %d, %v; want 1", n, err)
	}
	if len(nats.published) != 1 || nats.published[0].EventID != event.EventID {
		t.Errorf("published = %+v, want the original event id", nats.published)
	}
	if s := w.Stats(); s.PendingCount != 0 {
		t.Errorf("pending after replay = %d", s.PendingCount)
	}

	if n, _ := NewReplayer(w, nats).Replay(ctx); n != -1 {
		t.Errorf("Replay with nothing pending = %d, want -1", n)
	}
}

func TestDurablePublisher_Success(t *testing.T) {
	w := openTestWAL(t)
	nats := &flakyPublisher{}
	if err := NewDurablePublisher(w, nats).Publish(context.Background(), events.NewDeviceEvent(events.DeviceLinked, "Computer", 3)); err != nil {
		t.Fatal(err)
	}
	if s := w.Stats(); s.PendingCount != 0 || s.ConfirmedCount != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestReplay_DropsExhaustedEntries(t *testing.T) {
	w := openTestWAL(t)
	ctx := context.Background()
	nats := &flakyPublisher{failures: -1}

	for i := 0; i < 3; i++ {
		_ = NewDurablePublisher(w, nats).Publish(ctx, events.NewDeviceEvent(events.DeviceSynced, "Computer", 1))
	}
	r := NewReplayer(w, nats)
	r.cfg.MaxRetries = 1

	n, err := r.Replay(ctx)
	if err != nil || n != 0 {
		t.Errorf("Replay = %d, %v; want 0", n, err)
	}
	if s := w.Stats(); s.PendingCount != 0 {
		t.Errorf("pending = %d, want exhausted entries dropped", s.PendingCount)
	}
}

func TestReplay_DropsExpiredEntries(t *testing.T) {
	w := openTestWAL(t)
	ctx := context.Background()
	if _, err := w.Write(ctx, events.NewDeviceEvent(events.DeviceSynced, "Computer", 1)); err != nil {
		t.Fatal(err)
	}

	nats := &flakyPublisher{}
	r := NewReplayer(w, nats)
	r.cfg.EntryTTL = time.Millisecond
	time.Sleep(5 * time.Millisecond)

	if n, _ := r.Replay(ctx); n != 0 {
		t.Errorf("Replay = %d, want 0", n)
	}
	if len(nats.published) != 0 {
		t.Error("expired entry should not be published")
	}
	if s := w.Stats(); s.PendingCount != 0 {
		t.Errorf("pending = %d", s.PendingCount)
	}
}

func TestTryClaim(t *testing.T) {
	w := openTestWAL(t)
	ctx := context.Background()
	id, _ := w.Write(ctx, events.NewDeviceEvent(events.DeviceSynced, "Computer", 1))

	if ok, err := w.TryClaim(ctx, id, "a"); !ok || err != nil {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	if ok, _ := w.TryClaim(ctx, id, "b"); ok {
		t.Error("b should not claim a live lease")
	}
	if ok, _ := w.TryClaim(ctx, id, "a"); !ok {
		t.Error("a should renew its own lease")
	}
	if err := w.ReleaseLease(ctx, id); err != nil {
		t.Fatal(err)
	}
	if ok, _ := w.TryClaim(ctx, id, "b"); !ok {
		t.Error("b should claim a released lease")
	}
	if _, err := w.TryClaim(ctx, "missing", "a"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("claim missing = %v", err)
	}
}

func TestBackoff(t *testing.T) {
	r := &Replayer{cfg: config.WALConfig{RetryBackoff: 5 * time.Second}}
	tests := map[int]time.Duration{0: 5 * time.Second, 1: 10 * time.Second, 3: 40 * time.Second, 10: maxBackoff, 200: maxBackoff}
	for attempts, want := range tests {
		if got := r.backoff(attempts); got != want {
			t.Errorf("backoff(%d) = %v, want %v", attempts, got, want)
		}
	}
}

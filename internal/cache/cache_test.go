// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package cache

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New[[]string](time.Minute, 0)
	defer c.Close()

	if _, ok := c.Get("alice"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("alice", []string{"Send Mobile Device Lost Mode Command"})
	got, ok := c.Get("alice")
	if !ok || len(got) != 1 {
		t.Fatalf("expected hit with one privilege, got %v ok=%v", got, ok)
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[int](time.Minute, 0)
	defer c.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len=%d", c.Len())
	}
	if c.GetStats().Evictions != 1 {
		t.Errorf("expected one eviction, got %d", c.GetStats().Evictions)
	}
}

func TestCacheCleanup(t *testing.T) {
	c := New[int](time.Minute, 0)
	defer c.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(time.Hour)
	c.Set("c", 3)

	c.cleanup()

	if c.Len() != 1 {
		t.Errorf("expected only fresh entry to remain, len=%d", c.Len())
	}
	c.Delete("c")
	if c.Len() != 0 {
		t.Errorf("expected empty cache after delete, len=%d", c.Len())
	}
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package query

import (
	"testing"
	"time"
)

func TestWhereBuilder_Empty(t *testing.T) {
	where, args := NewWhereBuilder().AddEquals("category", "").AddIn("itemtype", nil).AddNullOrBefore("sync_date", nil).Build()
	if where != "1=1" {
		t.Errorf("where = %q, want 1=1", where)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestWhereBuilder_Combined(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args := NewWhereBuilder().
		AddEquals("category", "MobileDevice").
		AddIn("itemtype", []string{"Computer", "Phone"}).
		AddNullOrBefore("sync_date", &cutoff).
		Build()

	want := "category = ? AND itemtype IN (?, ?) AND (sync_date IS NULL OR sync_date < ?)"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if len(args) != 4 {
		t.Fatalf("len(args) = %d, want 4", len(args))
	}
	if args[0] != "MobileDevice" || args[2] != "Phone" {
		t.Errorf("unexpected args %v", args)
	}
	if got, ok := args[3].(time.Time); !ok || !got.Equal(cutoff) {
		t.Errorf("args[3] = %v, want cutoff", args[3])
	}
}

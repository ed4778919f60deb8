// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func decodeRecord(t *testing.T, s string) Record {
	t.Helper()
	var r Record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return r
}

func TestRecordAccessors(t *testing.T) {
	r := decodeRecord(t, `{
		"general": {
			"name": "iPad",
			"id": 42,
			"capacity_mb": "65536",
			"managed": true,
			"supervised": "false",
			"shared": "Yes",
			"battery_level": 87.5,
			"last_inventory_update_utc": "2020-01-23T15:36:41.140+0000",
			"initial_entry_date_epoch": 1579793801140,
			"empty_date": "",
			"nothing": null
		},
		"security": {"data_protection": true},
		"applications": [{"application_name": "Safari"}, "junk", {"application_name": "Mail"}]
	}`)

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"string", r.String("general.name"), "iPad"},
		{"number as string", r.String("general.id"), "42"},
		{"int from number", r.Int("general.id"), int64(42)},
		{"int from string", r.Int("general.capacity_mb"), int64(65536)},
		{"float", r.Float("general.battery_level"), 87.5},
		{"bool", r.Bool("general.managed"), true},
		{"bool from string false", r.Bool("general.supervised"), false},
		{"bool from string yes", r.Bool("general.shared"), true},
		{"missing string", r.String("general.missing"), ""},
		{"path through scalar", r.String("general.name.first"), ""},
		{"has section", r.Has("security"), true},
		{"has null", r.Has("general.nothing"), false},
		{"missing section", r.Section("network") == nil, true},
		{"records skip non-objects", len(r.Records("applications")), 2},
		{"empty time", r.Time("general.empty_date").IsZero(), true},
		{"nil time ptr", r.TimePtr("general.empty_date") == nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	want := time.Date(2020, 1, 23, 15, 36, 41, 140_000_000, time.UTC)
	if got := r.Time("general.last_inventory_update_utc"); !got.Equal(want) {
		t.Errorf("string time = %v, want %v", got, want)
	}
	if got := r.Time("general.initial_entry_date_epoch"); !got.Equal(time.UnixMilli(1579793801140)) {
		t.Errorf("epoch time = %v", got)
	}
	if got := r.Section("security").Bool("data_protection"); !got {
		t.Error("section accessor failed")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2019-12-11T15:08:46.340+0000", time.Date(2019, 12, 11, 15, 8, 46, 340_000_000, time.UTC)},
		{"2019-12-11T10:08:46-0500", time.Date(2019, 12, 11, 15, 8, 46, 0, time.UTC)},
		{"2024-03-01T08:00:00Z", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{"2019-12-11 15:08:46", time.Date(2019, 12, 11, 15, 8, 46, 0, time.UTC)},
		{"2019-12-11", time.Date(2019, 12, 11, 0, 0, 0, 0, time.UTC)},
		{"not a date", time.Time{}},
	}
	for _, tt := range tests {
		if got := ParseTime(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

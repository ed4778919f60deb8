// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"strconv"
	"strings"
	"time"
)

// Record is a decoded Classic API device payload. Accessors take dotted
// paths ("general.name") and return zero values for absent or mistyped
// entries.
type Record map[string]interface{}

// timeLayouts are tried in order when parsing Jamf date strings.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (r Record) lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}

// Has reports whether path resolves to a non-null value.
func (r Record) Has(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

// Section returns the object at path, or nil.
func (r Record) Section(path string) Record {
	v, ok := r.lookup(path)
	if !ok {
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	return m
}

// String returns the value at path rendered as a string.
func (r Record) String(path string) string {
	v, _ := r.lookup(path)
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Int returns the value at path as an integer.
func (r Record) Int(path string) int64 {
	v, _ := r.lookup(path)
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns the value at path as a float.
func (r Record) Float(path string) float64 {
	v, _ := r.lookup(path)
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool returns the value at path as a boolean. Jamf sends some flags as
// strings.
func (r Record) Bool(path string) bool {
	v, _ := r.lookup(path)
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "enabled":
			return true
		}
	}
	return false
}

// Time returns the value at path as a UTC time. Strings are parsed with the
// layouts Jamf emits; numbers are epoch milliseconds. Zero when absent.
func (r Record) Time(path string) time.Time {
	v, _ := r.lookup(path)
	switch t := v.(type) {
	case string:
		return ParseTime(t)
	case float64:
		if t <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(int64(t)).UTC()
	default:
		return time.Time{}
	}
}

// TimePtr is Time returning nil for the zero time.
func (r Record) TimePtr(path string) *time.Time {
	t := r.Time(path)
	if t.IsZero() {
		return nil
	}
	return &t
}

// Records returns the objects of the array at path, skipping non-objects.
func (r Record) Records(path string) []Record {
	v, ok := r.lookup(path)
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, e := range list {
		if m, ok := asMap(e); ok {
			out = append(out, m)
		}
	}
	return out
}

// ParseTime parses a Jamf date string, returning the zero time on failure.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is matched by *MalformedError.
var ErrMalformed = errors.New("jamf: malformed record")

// MalformedError reports a record entry whose shape differs from what its
// path should hold.
type MalformedError struct {
	Path string
	Want string
	Got  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("jamf record %s: want %s, got %s", e.Path, e.Want, e.Got)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}, Record:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// lookupStrict resolves path like lookup, but a non-object met on the way is
// malformed rather than absent. Null counts as absent.
func (r Record) lookupStrict(path string) (interface{}, bool, error) {
	var cur interface{} = map[string]interface{}(r)
	parts := strings.Split(path, ".")
	for i, part := range parts {
		m, ok := asMap(cur)
		if !ok {
			return nil, false, &MalformedError{Path: strings.Join(parts[:i], "."), Want: "object", Got: kindOf(cur)}
		}
		v, found := m[part]
		if !found || v == nil {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// Object returns the object at path. It returns nil, nil when the path is
// absent.
func (r Record) Object(path string) (Record, error) {
	v, found, err := r.lookupStrict(path)
	if err != nil || !found {
		return nil, err
	}
	m, ok := asMap(v)
	if !ok {
		return nil, &MalformedError{Path: path, Want: "object", Got: kindOf(v)}
	}
	return m, nil
}

// List returns the objects of the array at path. present is false when the
// path is absent; any element that is not an object is malformed.
func (r Record) List(path string) (list []Record, present bool, err error) {
	v, found, err := r.lookupStrict(path)
	if err != nil || !found {
		return nil, false, err
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, true, &MalformedError{Path: path, Want: "array", Got: kindOf(v)}
	}
	list = make([]Record, 0, len(raw))
	for i, e := range raw {
		m, ok := asMap(e)
		if !ok {
			return nil, true, &MalformedError{Path: fmt.Sprintf("%s[%d]", path, i), Want: "object", Got: kindOf(e)}
		}
		list = append(list, m)
	}
	return list, true, nil
}

// Strict returns a reader that rejects mistyped scalars.
func (r Record) Strict() *FieldReader {
	return &FieldReader{rec: r}
}

// FieldReader reads scalar entries of a record. The first malformed entry
// is kept and returned by Err; reads after it return zero values.
//
//	f := rec.Strict()
//	serial, ok := f.String("general.serial_number")
//	if err := f.Err(); err != nil { ... }
type FieldReader struct {
	rec Record
	err error
}

// Err returns the first malformed entry met, if any.
func (f *FieldReader) Err() error {
	return f.err
}

func (f *FieldReader) fail(path, want string, v interface{}) {
	f.err = &MalformedError{Path: path, Want: want, Got: kindOf(v)}
}

func (f *FieldReader) scalar(path string) (interface{}, bool) {
	if f.err != nil {
		return nil, false
	}
	v, found, err := f.rec.lookupStrict(path)
	if err != nil {
		f.err = err
		return nil, false
	}
	if !found {
		return nil, false
	}
	switch v.(type) {
	case string, float64, bool:
		return v, true
	default:
		f.fail(path, "scalar", v)
		return nil, false
	}
}

// Has reports whether path holds a scalar.
func (f *FieldReader) Has(path string) bool {
	_, ok := f.scalar(path)
	return ok
}

// String returns the scalar at path rendered as a string and whether it was
// present.
func (f *FieldReader) String(path string) (string, bool) {
	v, ok := f.scalar(path)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return strconv.FormatBool(t.(bool)), true
	}
}

// Bool returns the flag at path. Strings are read the way Jamf writes them.
func (f *FieldReader) Bool(path string) bool {
	v, ok := f.scalar(path)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	default:
		switch strings.ToLower(strings.TrimSpace(t.(string))) {
		case "true", "yes", "1", "enabled":
			return true
		}
		return false
	}
}

// Int returns the integer at path. An empty string is zero; any other
// non-numeric value is malformed.
func (f *FieldReader) Int(path string) int64 {
	v, ok := f.scalar(path)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f.fail(path, "integer", v)
			return 0
		}
		return n
	default:
		f.fail(path, "integer", v)
		return 0
	}
}

// Float returns the number at path. An empty string is zero; any other
// non-numeric value is malformed.
func (f *FieldReader) Float(path string) float64 {
	v, ok := f.scalar(path)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			f.fail(path, "number", v)
			return 0
		}
		return n
	default:
		f.fail(path, "number", v)
		return 0
	}
}

// Time returns the date at path in UTC; numbers are epoch milliseconds. An
// empty string is the zero time; an unparseable one is malformed.
func (f *FieldReader) Time(path string) time.Time {
	v, ok := f.scalar(path)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}
		}
		parsed := ParseTime(t)
		if parsed.IsZero() {
			f.fail(path, "date", v)
		}
		return parsed
	case float64:
		if t <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(int64(t)).UTC()
	default:
		f.fail(path, "date", v)
		return time.Time{}
	}
}

// TimePtr is Time returning nil for the zero time.
func (f *FieldReader) TimePtr(path string) *time.Time {
	t := f.Time(path)
	if t.IsZero() {
		return nil
	}
	return &t
}

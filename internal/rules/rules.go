// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package rules

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/validation"
)

// Well-known fields.
const (
	FieldImport        = "_import"
	FieldName          = "name"
	FieldItemtype      = "itemtype"
	FieldLastInventory = "last_inventory"
	FieldManaged       = "managed"
	FieldSupervised    = "supervised"
)

// maxPasses bounds recursive evaluation.
const maxPasses = 10

// ErrNotConverged is returned when recursive evaluation keeps changing the
// output after maxPasses passes.
var ErrNotConverged = errors.New("rules: recursive evaluation did not converge")

// Fields is a flat set of rule inputs or outputs.
type Fields map[string]string

// Clone returns a copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ImportDenied reports whether the _import field vetoes the import. An absent
// field allows it.
func (f Fields) ImportDenied() bool {
	v, ok := f[FieldImport]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no":
		return true
	}
	return false
}

// Options controls evaluation.
type Options struct {
	Recursive bool
}

// Evaluator decides what happens to a discovered device.
type Evaluator interface {
	Evaluate(ctx context.Context, input, output Fields, opts Options) (Fields, error)
}

type condition func(value string) bool

type rule struct {
	name     string
	matchAny bool
	stop     bool
	criteria []criterion
	actions  []config.ActionConfig
}

type criterion struct {
	field string
	test  condition
}

// Collection is an ordered, immutable rule list.
type Collection struct {
	rules []rule
	now   func() time.Time
}

var _ Evaluator = (*Collection)(nil)

// NewCollection validates and compiles rule configuration. An empty list
// yields a collection that allows everything.
func NewCollection(cfgs []config.RuleConfig) (*Collection, error) {
	c := &Collection{now: time.Now}
	for i := range cfgs {
		rc := cfgs[i]
		if err := validation.ValidateStruct(&rc); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rc.Name, err)
		}

		r := rule{
			name:     rc.Name,
			matchAny: strings.EqualFold(rc.Match, "or"),
			stop:     rc.Stop,
			actions:  rc.Actions,
		}
		for _, cc := range rc.Criteria {
			test, err := c.compile(cc)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s) field %s: %w", i, rc.Name, cc.Field, err)
			}
			r.criteria = append(r.criteria, criterion{field: cc.Field, test: test})
		}
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// Len returns the number of rules.
func (c *Collection) Len() int {
	return len(c.rules)
}

// Evaluate applies the rules to input, starting from a copy of output.
func (c *Collection) Evaluate(ctx context.Context, input, output Fields, opts Options) (Fields, error) {
	out := output.Clone()
	subject := input.Clone()

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := c.applyOnce(subject, out)
		if !opts.Recursive || !changed {
			return out, nil
		}
		if pass >= maxPasses {
			return out, ErrNotConverged
		}
		for k, v := range out {
			subject[k] = v
		}
	}
}

// applyOnce runs every rule against subject, writing actions to out. It
// reports whether any output field changed.
func (c *Collection) applyOnce(subject, out Fields) bool {
	changed := false
	for i := range c.rules {
		r := &c.rules[i]
		if !r.matches(subject) {
			continue
		}
		logging.Debug().Str("rule", r.name).Msg("Import rule matched")
		for _, a := range r.actions {
			if prev, ok := out[a.Field]; !ok || prev != a.Value {
				out[a.Field] = a.Value
				changed = true
			}
		}
		if r.stop {
			break
		}
	}
	return changed
}

func (r *rule) matches(subject Fields) bool {
	if len(r.criteria) == 0 {
		return true
	}
	for _, c := range r.criteria {
		ok := c.test(subject[c.field])
		if r.matchAny && ok {
			return true
		}
		if !r.matchAny && !ok {
			return false
		}
	}
	return !r.matchAny
}

func (c *Collection) compile(cc config.CriterionConfig) (condition, error) {
	pattern := cc.Pattern
	switch cc.Condition {
	case "is":
		return func(v string) bool { return strings.EqualFold(v, pattern) }, nil
	case "is_not":
		return func(v string) bool { return !strings.EqualFold(v, pattern) }, nil
	case "contains":
		p := strings.ToLower(pattern)
		return func(v string) bool { return strings.Contains(strings.ToLower(v), p) }, nil
	case "not_contains":
		p := strings.ToLower(pattern)
		return func(v string) bool { return !strings.Contains(strings.ToLower(v), p) }, nil
	case "regex", "not_regex":
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		negate := cc.Condition == "not_regex"
		return func(v string) bool { return re.MatchString(v) != negate }, nil
	case "older_than", "newer_than":
		d, err := parseAge(pattern)
		if err != nil {
			return nil, err
		}
		older := cc.Condition == "older_than"
		return func(v string) bool {
			t := jamf.ParseTime(v)
			if t.IsZero() {
				return false
			}
			cutoff := c.now().Add(-d)
			if older {
				return t.Before(cutoff)
			}
			return t.After(cutoff)
		}, nil
	case "exists":
		return func(v string) bool { return strings.TrimSpace(v) != "" }, nil
	default:
		return nil, fmt.Errorf("unknown condition %q", cc.Condition)
	}
}

// parseAge accepts Go durations plus a day suffix ("30d").
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return d, nil
}

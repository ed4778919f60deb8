// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package query builds parameterized WHERE clauses for the database package.
package query

import (
	"strings"
	"time"
)

// WhereBuilder accumulates AND-joined conditions and their arguments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddEquals("category", "MobileDevice").AddNullOrBefore("sync_date", cutoff)
//	where, args := wb.Build()
//	// category = ? AND (sync_date IS NULL OR sync_date < ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition with its arguments. column names must come
// from code, never from user input.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddEquals adds "column = ?" unless value is the zero string.
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	return wb.AddClause(column+" = ?", value)
}

// AddIn adds "column IN (?, ...)". An empty list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, column+" IN ("+strings.Join(placeholders, ", ")+")")
	return wb
}

// AddNullOrBefore matches rows whose column is NULL or earlier than t.
// A nil t is skipped.
func (wb *WhereBuilder) AddNullOrBefore(column string, t *time.Time) *WhereBuilder {
	if t == nil {
		return wb
	}
	return wb.AddClause("("+column+" IS NULL OR "+column+" < ?)", t.UTC())
}

// Build returns the joined condition (without WHERE) and its arguments.
// With no conditions it returns "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", nil
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/jamfsync/internal/logging"
)

var (
	// ErrItemNotFound is returned when no local item matches.
	ErrItemNotFound = errors.New("item not found")

	// ErrLinkNotFound is returned when no device link matches.
	ErrLinkNotFound = errors.New("device link not found")

	// ErrLinkExists is returned when creating a link would violate one of the
	// link uniqueness constraints.
	ErrLinkExists = errors.New("device link already exists")

	// ErrUserNotFound is returned when no local user matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrExtensionAttributeNotFound is returned when no definition matches.
	ErrExtensionAttributeNotFound = errors.New("extension attribute not found")

	// ErrPendingImportNotFound is returned when no pending candidate matches.
	ErrPendingImportNotFound = errors.New("pending import not found")

	// ErrUnknownColumn is returned when a changeset names a column outside the
	// table whitelist.
	ErrUnknownColumn = errors.New("unknown column")
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isUniqueConstraintError reports whether err is a DuckDB primary key or
// unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint")
}

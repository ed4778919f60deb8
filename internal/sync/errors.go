// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrItemNotFound means the local item does not exist (or is deleted).
	ErrItemNotFound = errors.New("local item not found")

	// ErrNotLinked means the local item has no device link.
	ErrNotLinked = errors.New("item is not linked to a Jamf device")

	// ErrAlreadyLinked means the local item or the remote device already has
	// a device link.
	ErrAlreadyLinked = errors.New("already linked")

	// ErrRemoteNotFound means Jamf has no device with that id.
	ErrRemoteNotFound = errors.New("remote device not found")

	// ErrUnknownCategory means the category is neither Computer nor
	// MobileDevice.
	ErrUnknownCategory = errors.New("unknown device category")

	// ErrUnsupportedItemtype means the category cannot be imported as that
	// local item type.
	ErrUnsupportedItemtype = errors.New("item type not supported for category")

	// ErrPendingNotFound means there is no pending import candidate.
	ErrPendingNotFound = errors.New("pending import not found")

	// ErrJobRunning means the same batch job is already running for the
	// category.
	ErrJobRunning = errors.New("job already running")

	// ErrUnknownCommand means the MDM command is not supported for the
	// category.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrPermissionDenied means the caller's Jamf account lacks the privilege
	// a command requires.
	ErrPermissionDenied = errors.New("permission denied")
)

// RunError reports a failed sync run. Failed lists the tasks that ended in
// ERROR or stayed DEFERRED after the retry.
type RunError struct {
	Itemtype string
	ItemsID  int64
	Failed   []TaskOutcome
}

func (e *RunError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		if f.Err != nil {
			parts = append(parts, fmt.Sprintf("%s=%s (%v)", f.Task, f.Outcome, f.Err))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", f.Task, f.Outcome))
		}
	}
	return fmt.Sprintf("sync of %s %d failed: %s", e.Itemtype, e.ItemsID, strings.Join(parts, ", "))
}

// Unwrap exposes the task errors so callers can test for remote conditions
// such as jamf.ErrRateLimited.
func (e *RunError) Unwrap() []error {
	var errs []error
	for _, f := range e.Failed {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

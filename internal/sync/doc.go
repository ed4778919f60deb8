// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package sync reconciles Jamf devices with local GLPI-style items.

The Engine drives four stages:

  - Discover lists every remote device of a category and either imports it
    (auto-import) or stages it as a pending import candidate.
  - Import evaluates the import rules for one remote device, creates the
    local item and performs its first sync, all in one transaction.
  - Sync runs the ordered task chain for a linked item and finalizes the
    resulting changeset inside one transaction.
  - SyncAll syncs every linked device whose last sync is older than the
    configured interval.

# Task Chain

A run executes these tasks strictly in order:

	general -> os -> software -> user -> purchasing -> extension_attributes
	        -> security -> network -> other -> device_link

Each task reads the immutable remote Record and the local item snapshot and
writes into its own Changeset, which is merged into the run's changeset only
when the task succeeds. A task reports one Outcome: OK, SKIPPED (input
section absent or task disabled), NOT_APPLICABLE (the category has no such
task), ERROR or DEFERRED (needs the device link, which does not exist before
the first finalize).

Finalize stamps the sync date, writes item fields in one UPDATE, upserts each
auxiliary field, creates or updates the device link and then retries every
DEFERRED task exactly once. Any task left in ERROR or DEFERRED fails the run:
the transaction is rolled back and a *RunError is returned.

# Categories

Computer and MobileDevice differ only by data: a descriptor holds the field
paths into the Classic API record, the supported local item types and the
category specific task. There is no per-category engine type.

# Device Events

After a change commits the engine publishes an events.DeviceEvent to every
sink set with SetEventSinks: queued, imported, synced, sync_failed, linked,
unlinked and deleted. A sink error is logged and never fails the operation.

# Concurrency

Runs are sequential. Two runs on the same remote device serialize on a keyed
mutex, and each batch job (discover, sync) holds a per-category try-lock so
the same job never overlaps itself; a second caller gets ErrJobRunning.
*/
package sync

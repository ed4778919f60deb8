// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package audit records operator actions that change devices or the registry.

MDM commands can lock or wipe hardware, and merges, unmerges and deletes
rewrite which local item a Jamf device maps to. Each such action taken through
the trigger API is recorded as an Event with the acting account, the target
and whether it went through.

Events are written asynchronously through a buffered channel so a slow store
never delays an API response. When the buffer is full the event is dropped
and a warning is logged.

# Storage

DuckDBStore keeps events in the audit_events table of the main jamfsync
database. MemoryStore is a bounded in-process store for tests and for running
with AUDIT_ENABLED=false.

# Retention

Logger.Cleanup deletes events older than RetentionDays. main runs it as a
daily supervised job.

# Usage

	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
	    return err
	}
	auditor := audit.NewLogger(store, &audit.Config{Enabled: true, RetentionDays: 365, BufferSize: 256})
	defer auditor.Close()

	auditor.Log(&audit.Event{
	    Type:    audit.EventTypeCommandSent,
	    Outcome: audit.OutcomeSuccess,
	    Actor:   "helpdesk",
	    Action:  "DeviceLock",
	})
*/
package audit

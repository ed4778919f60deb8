// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package wal holds device events in a BadgerDB write-ahead log until NATS
acknowledges them.

Events survive process restarts and NATS outages:

	DeviceEvent -> WAL Write (fsync) -> NATS Publish -> WAL Confirm
	                                          |
	                                          v on failure
	                                    entry kept for Replay

# Components

  - BadgerWAL: the log, keyed "pending:<id>" and "confirmed:<id>"
  - DurablePublisher: writes, publishes and confirms one event
  - Replayer: republishes pending entries with exponential backoff
  - Compact: drops confirmed and expired entries and runs value log GC

Replayer.Replay and BadgerWAL.Compact are run as supervisor jobs. Replays may
publish an event twice; JetStream drops the copy because the message id is
the event id.

# Leases

Replay claims an entry with a lease stored in the entry itself before
publishing it. A crashed process never releases its lease; it expires after
the lease duration and the entry becomes claimable again.
*/
package wal

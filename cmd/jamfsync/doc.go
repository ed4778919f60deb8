// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package main is the entry point for jamfsync.
//
// jamfsync mirrors devices managed by Jamf Pro into a GLPI-style asset store.
// It discovers new Jamf devices, imports them under configurable rules, keeps
// linked items in sync through an ordered task chain, mirrors extension
// attributes and relays MDM commands.
//
// # Startup
//
//  1. Configuration: defaults, optional YAML file, environment (koanf v2)
//  2. Logging: zerolog, with an slog bridge for the supervisor
//  3. Database: DuckDB local store
//  4. Jamf client: rate limited, wrapped in a circuit breaker
//  5. Engine: sync engine with the import rules
//  6. Device events: NATS JetStream publisher, embedded server optional,
//     behind a BadgerDB write-ahead log, when EVENTS_ENABLED
//  7. Audit trail: audit_events table in the same database, when AUDIT_ENABLED,
//     and scheduled tar.gz backups of the database, when BACKUP_ENABLED
//  8. API authentication: proxy header by default, or JWT/basic credentials
//     checked against a Casbin role policy (AUTH_MODE)
//  9. Supervisor tree: discover and sync-due jobs per category, a checkpoint
//     job, audit retention, event replay and WAL compaction, and the trigger
//     API with its WebSocket event hub when HTTP_ENABLED
//
// # Rules Reload
//
// When a config file is in use it is watched; on change the rules section is
// reloaded and swapped into the running engine. Other settings need a
// restart.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. Running jobs finish their
// current device, the API drains within its shutdown timeout, then queued
// audit events are flushed and the database is checkpointed and closed.
//
// # Example
//
//	export JAMF_URL=https://example.jamfcloud.com
//	export JAMF_CLIENT_ID=...
//	export JAMF_CLIENT_SECRET=...
//	export SYNC_CATEGORIES=Computer,MobileDevice
//	export DUCKDB_PATH=/data/jamfsync.duckdb
//	./jamfsync
package main

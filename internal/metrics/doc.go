// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package metrics defines the Prometheus collectors exported by jamfsync.
//
// Collectors are registered with the default registry through promauto and
// served by the API at /metrics. Callers use the Record* helpers rather than
// touching the vectors directly so label sets stay consistent.
//
// Families:
//
//   - jamf_api_*: outbound Jamf requests (count, duration, rate limiting)
//   - circuit_breaker_*: state of the breaker wrapping the Jamf client
//   - jamfsync_sync_*: sync runs and per-task outcomes
//   - jamfsync_discovery_*, jamfsync_import_*: discovery and import results
//   - jamfsync_duckdb_*: local store query timings
package metrics

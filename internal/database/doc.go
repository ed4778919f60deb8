// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package database is the DuckDB-backed local store for jamfsync.
//
// It holds the GLPI-shaped asset records (glpi_items, glpi_users,
// item_extra_fields) and the Jamf bookkeeping tables (jamf_devices,
// jamf_imports, jamf_extensionattributes, jamf_items_extensionattributes).
//
// All row access goes through *Store, which runs either on the pooled
// connection (DB embeds a Store) or inside a transaction handed out by
// DB.WithTx. Sync runs and imports use WithTx so that a failed run leaves no
// partial writes behind.
package database

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package backup snapshots the DuckDB store that holds device links, pending
imports and the extension attribute mirror.

Archive layout:

	jamfsync-{timestamp}-{id}.tar.gz
	├── database/jamfsync.duckdb       main database file
	├── database/jamfsync.duckdb.wal   WAL file, if present
	└── backup-metadata.json           backup details and per-file SHA-256

Each archive has a sidecar {name}.json with the same metadata so listing
does not open archives. The database is checkpointed before copying; a
failed checkpoint is logged and the copy still runs.

Backups run on the BACKUP_INTERVAL job or on demand through the API. Only one
backup runs at a time. After each backup the oldest archives beyond
BACKUP_RETAIN are removed.

Restoring is manual: stop jamfsync, extract database/ over DUCKDB_PATH and
start it again. Verify checks an archive against its recorded checksums.
*/
package backup

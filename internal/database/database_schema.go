// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
database_schema.go - Database Schema Management

Tables:
  - glpi_items: local asset records (Computer, Phone)
  - glpi_users: local user accounts matched by the user sync task
  - item_extra_fields: auxiliary key/value fields per item (Phone UDID,
    software inventory, hardware components, purchasing details)
  - jamf_devices: one row per local item linked to a Jamf device
  - jamf_imports: discovered devices awaiting an import decision
  - jamf_extensionattributes: mirrored extension attribute definitions
  - jamf_items_extensionattributes: extension attribute values per item

Constraint notes:
DuckDB rejects UPDATEs that touch columns covered by a unique index, so the
identity columns of jamf_devices (itemtype, items_id, category, jamf_id) are
write-once and sync only ever updates bookkeeping columns.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS seq_glpi_items START 1;`,
	`CREATE SEQUENCE IF NOT EXISTS seq_glpi_users START 1;`,
	`CREATE SEQUENCE IF NOT EXISTS seq_jamf_devices START 1;`,
	`CREATE SEQUENCE IF NOT EXISTS seq_jamf_extensionattributes START 1;`,

	`CREATE TABLE IF NOT EXISTS glpi_items (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_glpi_items'),
		itemtype TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		serial TEXT NOT NULL DEFAULT '',
		otherserial TEXT NOT NULL DEFAULT '',
		uuid TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		contact_num TEXT NOT NULL DEFAULT '',
		users_id BIGINT NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT '',
		manufacturer TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		os_name TEXT NOT NULL DEFAULT '',
		os_version TEXT NOT NULL DEFAULT '',
		os_build TEXT NOT NULL DEFAULT '',
		is_dynamic BOOLEAN NOT NULL DEFAULT false,
		is_deleted BOOLEAN NOT NULL DEFAULT false,
		date_creation TIMESTAMP NOT NULL DEFAULT current_timestamp,
		date_mod TIMESTAMP NOT NULL DEFAULT current_timestamp
	);`,

	`CREATE TABLE IF NOT EXISTS glpi_users (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_glpi_users'),
		name TEXT NOT NULL,
		realname TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	);`,

	`CREATE TABLE IF NOT EXISTS item_extra_fields (
		itemtype TEXT NOT NULL,
		items_id BIGINT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (itemtype, items_id, field)
	);`,

	`CREATE TABLE IF NOT EXISTS jamf_devices (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_jamf_devices'),
		itemtype TEXT NOT NULL,
		items_id BIGINT NOT NULL,
		category TEXT NOT NULL,
		jamf_id BIGINT NOT NULL,
		udid TEXT NOT NULL DEFAULT '',
		last_inventory TIMESTAMP,
		entry_date TIMESTAMP,
		enroll_date TIMESTAMP,
		import_date TIMESTAMP,
		sync_date TIMESTAMP,
		managed BOOLEAN NOT NULL DEFAULT false,
		supervised BOOLEAN NOT NULL DEFAULT false,
		shared BOOLEAN NOT NULL DEFAULT false,
		activation_lock_enabled BOOLEAN NOT NULL DEFAULT false,
		lost_mode_enabled BOOLEAN NOT NULL DEFAULT false,
		lost_mode_enforced BOOLEAN NOT NULL DEFAULT false,
		lost_mode_enable_issued TIMESTAMP,
		lost_mode_message TEXT NOT NULL DEFAULT '',
		lost_mode_phone TEXT NOT NULL DEFAULT '',
		lost_location_latitude DOUBLE NOT NULL DEFAULT 0,
		lost_location_longitude DOUBLE NOT NULL DEFAULT 0,
		lost_location_altitude DOUBLE NOT NULL DEFAULT 0,
		lost_location_speed DOUBLE NOT NULL DEFAULT 0,
		lost_location_date TIMESTAMP,
		UNIQUE (itemtype, items_id),
		UNIQUE (category, jamf_id)
	);`,

	`CREATE TABLE IF NOT EXISTS jamf_imports (
		category TEXT NOT NULL,
		jamf_id BIGINT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		udid TEXT NOT NULL DEFAULT '',
		serial TEXT NOT NULL DEFAULT '',
		model_identifier TEXT NOT NULL DEFAULT '',
		itemtype TEXT NOT NULL,
		date_discover TIMESTAMP NOT NULL DEFAULT current_timestamp,
		PRIMARY KEY (category, jamf_id)
	);`,

	`CREATE TABLE IF NOT EXISTS jamf_extensionattributes (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_jamf_extensionattributes'),
		category TEXT NOT NULL,
		jamf_id BIGINT NOT NULL,
		itemtype TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		data_type TEXT NOT NULL DEFAULT '',
		UNIQUE (category, jamf_id)
	);`,

	`CREATE TABLE IF NOT EXISTS jamf_items_extensionattributes (
		itemtype TEXT NOT NULL,
		items_id BIGINT NOT NULL,
		definition_id BIGINT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (itemtype, items_id, definition_id)
	);`,
}

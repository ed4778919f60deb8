// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package config loads and validates jamfsync configuration.

Configuration is layered with koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/jamfsync/config.yaml
 3. Environment variables, mapped explicitly by envTransformFunc

# Sections

  - jamf: Jamf Pro URL and credentials, paging, outbound rate limit,
    the fault code Jamf returns when it throttles, privilege cache TTL
  - sync: enabled categories, auto-import, staleness interval, job intervals,
    per-task timeout and per-task toggles
  - database: DuckDB path and tuning
  - server: trigger API listener, CORS origins and per-IP rate limit
  - auth: API authentication mode and the Casbin role policy
  - logging: level, format, caller
  - audit: audit trail toggle, retention and buffer
  - backup: scheduled archives of the DuckDB store and how many to keep
  - events: device lifecycle events on NATS JetStream, external or embedded,
    buffered in a BadgerDB write-ahead log until acknowledged
  - rules: ordered import rules (YAML only)

# Environment Variables

	JAMF_URL, JAMF_USERNAME, JAMF_PASSWORD, JAMF_CLIENT_ID, JAMF_CLIENT_SECRET
	JAMF_TIMEOUT, JAMF_PAGE_SIZE, JAMF_RATE_LIMIT, JAMF_RATE_LIMIT_BURST
	JAMF_RATE_LIMIT_FAULT_CODE, JAMF_PRIVILEGE_CACHE_TTL
	SYNC_CATEGORIES, SYNC_AUTO_IMPORT, SYNC_INTERVAL, SYNC_JOB_INTERVAL
	DISCOVER_INTERVAL, SYNC_TASK_TIMEOUT, SYNC_TASK_<NAME> (GENERAL, OS, ...)
	DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
	HTTP_ENABLED, HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
	HTTP_CORS_ORIGINS, HTTP_RATE_LIMIT_REQUESTS, HTTP_RATE_LIMIT_WINDOW
	AUTH_MODE, JWT_SECRET, JWT_ISSUER, JWT_TOKEN_TTL
	BASIC_AUTH_USERNAME, BASIC_AUTH_PASSWORD, AUTH_DEFAULT_ROLE
	AUTHZ_POLICY_PATH, AUTHZ_DECISION_CACHE_TTL
	LOG_LEVEL, LOG_FORMAT, LOG_CALLER
	AUDIT_ENABLED, AUDIT_RETENTION_DAYS, AUDIT_BUFFER_SIZE, AUDIT_LOG_TO_STDOUT
	BACKUP_ENABLED, BACKUP_DIR, BACKUP_INTERVAL, BACKUP_RETAIN
	BACKUP_COMPRESSION_LEVEL
	EVENTS_ENABLED, NATS_URL, NATS_EMBEDDED, NATS_HOST, NATS_PORT
	NATS_STORE_DIR, NATS_STREAM, NATS_SUBJECT_PREFIX, NATS_RETENTION_DAYS
	WAL_ENABLED, WAL_PATH, WAL_SYNC_WRITES, WAL_RETRY_INTERVAL, WAL_MAX_RETRIES
	WAL_RETRY_BACKOFF, WAL_COMPACT_INTERVAL, WAL_ENTRY_TTL

Usage:

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config

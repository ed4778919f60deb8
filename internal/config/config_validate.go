// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/jamfsync/internal/validation"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateJamf(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative, got %d", c.Audit.RetentionDays)
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateRules()
}

func (c *Config) validateJamf() error {
	if c.Jamf.URL == "" {
		return fmt.Errorf("JAMF_URL is required")
	}
	if err := validateHTTPURL(c.Jamf.URL, "JAMF_URL"); err != nil {
		return err
	}

	hasUser := c.Jamf.Username != "" && c.Jamf.Password != ""
	hasClient := c.Jamf.ClientID != "" && c.Jamf.ClientSecret != ""
	if !hasUser && !hasClient {
		return fmt.Errorf("either JAMF_USERNAME/JAMF_PASSWORD or JAMF_CLIENT_ID/JAMF_CLIENT_SECRET is required")
	}

	if c.Jamf.Timeout <= 0 {
		return fmt.Errorf("JAMF_TIMEOUT must be positive, got %v", c.Jamf.Timeout)
	}
	if c.Jamf.PageSize < 1 || c.Jamf.PageSize > 2000 {
		return fmt.Errorf("JAMF_PAGE_SIZE must be between 1 and 2000, got %d", c.Jamf.PageSize)
	}
	if c.Jamf.RateLimit <= 0 {
		return fmt.Errorf("JAMF_RATE_LIMIT must be positive, got %v", c.Jamf.RateLimit)
	}
	if c.Jamf.RateLimitBurst < 1 {
		return fmt.Errorf("JAMF_RATE_LIMIT_BURST must be at least 1, got %d", c.Jamf.RateLimitBurst)
	}
	return nil
}

func (c *Config) validateSync() error {
	if len(c.Sync.Categories) == 0 {
		return fmt.Errorf("SYNC_CATEGORIES must list at least one category")
	}
	for _, cat := range c.Sync.Categories {
		if cat != "Computer" && cat != "MobileDevice" {
			return fmt.Errorf("SYNC_CATEGORIES contains unknown category %q (must be Computer or MobileDevice)", cat)
		}
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %v", c.Sync.Interval)
	}
	if c.Sync.JobInterval <= 0 {
		return fmt.Errorf("SYNC_JOB_INTERVAL must be positive, got %v", c.Sync.JobInterval)
	}
	if c.Sync.DiscoverInterval <= 0 {
		return fmt.Errorf("DISCOVER_INTERVAL must be positive, got %v", c.Sync.DiscoverInterval)
	}
	if c.Sync.TaskTimeout <= 0 {
		return fmt.Errorf("SYNC_TASK_TIMEOUT must be positive, got %v", c.Sync.TaskTimeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT_REQUESTS must not be negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateAuth() error {
	a := &c.Auth
	needJWT, needBasic := false, false
	switch a.Mode {
	case "", "proxy":
	case "jwt":
		needJWT = true
	case "basic":
		needBasic = true
	case "multi":
		needJWT, needBasic = true, true
	default:
		return fmt.Errorf("AUTH_MODE must be proxy, jwt, basic or multi, got %q", a.Mode)
	}
	if needJWT && len(a.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for AUTH_MODE=%s", a.Mode)
	}
	if needBasic && (a.BasicUsername == "" || a.BasicPassword == "") {
		return fmt.Errorf("BASIC_AUTH_USERNAME and BASIC_AUTH_PASSWORD are required for AUTH_MODE=%s", a.Mode)
	}
	switch a.DefaultRole {
	case "", "viewer", "operator", "admin":
	default:
		return fmt.Errorf("AUTH_DEFAULT_ROLE must be viewer, operator or admin, got %q", a.DefaultRole)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is invalid", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateBackup() error {
	b := &c.Backup
	if !b.Enabled {
		return nil
	}
	if b.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required when backups are enabled")
	}
	if c.Database.Path == ":memory:" {
		return fmt.Errorf("backups need a file database, DUCKDB_PATH is :memory:")
	}
	if b.Interval < time.Minute {
		return fmt.Errorf("BACKUP_INTERVAL must be at least 1m, got %v", b.Interval)
	}
	if b.Retain < 1 {
		return fmt.Errorf("BACKUP_RETAIN must be at least 1, got %d", b.Retain)
	}
	if b.CompressionLevel < -1 || b.CompressionLevel > 9 {
		return fmt.Errorf("BACKUP_COMPRESSION_LEVEL must be between -1 and 9, got %d", b.CompressionLevel)
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := &c.Events
	if !e.Enabled {
		return nil
	}
	if e.Embedded {
		if e.Port < 1 || e.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535, got %d", e.Port)
		}
		if e.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required for the embedded server")
		}
	} else if !strings.HasPrefix(e.URL, "nats://") && !strings.HasPrefix(e.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://, got %q", e.URL)
	}
	if e.Stream == "" || strings.ContainsAny(e.Stream, ". *>") {
		return fmt.Errorf("NATS_STREAM %q is not a valid stream name", e.Stream)
	}
	if e.SubjectPrefix == "" || strings.ContainsAny(e.SubjectPrefix, " *>") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX %q is not a valid subject", e.SubjectPrefix)
	}
	if e.RetentionDays < 1 {
		return fmt.Errorf("NATS_RETENTION_DAYS must be at least 1, got %d", e.RetentionDays)
	}
	return e.WAL.validate()
}

func (w *WALConfig) validate() error {
	if !w.Enabled {
		return nil
	}
	if w.Path == "" {
		return fmt.Errorf("WAL_PATH is required when the WAL is enabled")
	}
	if w.RetryInterval < time.Second {
		return fmt.Errorf("WAL_RETRY_INTERVAL must be at least 1s, got %v", w.RetryInterval)
	}
	if w.RetryBackoff < time.Second {
		return fmt.Errorf("WAL_RETRY_BACKOFF must be at least 1s, got %v", w.RetryBackoff)
	}
	if w.MaxRetries < 1 {
		return fmt.Errorf("WAL_MAX_RETRIES must be at least 1, got %d", w.MaxRetries)
	}
	if w.CompactInterval < time.Minute {
		return fmt.Errorf("WAL_COMPACT_INTERVAL must be at least 1m, got %v", w.CompactInterval)
	}
	if w.EntryTTL < time.Hour {
		return fmt.Errorf("WAL_ENTRY_TTL must be at least 1h, got %v", w.EntryTTL)
	}
	return nil
}

func (c *Config) validateRules() error {
	for i := range c.Rules {
		if err := validation.ValidateStruct(&c.Rules[i]); err != nil {
			return fmt.Errorf("rules[%d] (%s): %w", i, c.Rules[i].Name, err)
		}
	}
	return nil
}

func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}

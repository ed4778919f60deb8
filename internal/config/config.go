// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Jamf     JamfConfig     `koanf:"jamf"`
	Sync     SyncConfig     `koanf:"sync"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
	Audit    AuditConfig    `koanf:"audit"`
	Backup   BackupConfig   `koanf:"backup"`
	Events   EventsConfig   `koanf:"events"`
	Rules    []RuleConfig   `koanf:"rules"`
}

// JamfConfig holds the Jamf Pro connection settings.
type JamfConfig struct {
	URL          string        `koanf:"url"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	Timeout      time.Duration `koanf:"timeout"`
	PageSize     int           `koanf:"page_size"`

	// RateLimit is the sustained outbound request rate (requests/second).
	RateLimit      float64 `koanf:"rate_limit"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// RateLimitFaultCode is matched against HTTP 500 bodies; Jamf reports
	// throttling that way on some endpoints instead of sending 429.
	RateLimitFaultCode string `koanf:"rate_limit_fault_code"`

	PrivilegeCacheTTL time.Duration `koanf:"privilege_cache_ttl"`
}

// UsesClientCredentials reports whether API client credentials are configured
// instead of a user account.
func (j JamfConfig) UsesClientCredentials() bool {
	return j.ClientID != ""
}

// SyncConfig controls discovery, import and the sync task chain.
type SyncConfig struct {
	// Categories lists the enabled remote categories: Computer, MobileDevice.
	Categories []string `koanf:"categories"`

	// AutoImport imports discovered devices immediately instead of queuing them.
	AutoImport bool `koanf:"auto_import"`

	// Interval is how stale a link's sync_date may get before the sync-due
	// job picks it up.
	Interval time.Duration `koanf:"interval"`

	// JobInterval is how often the sync-due job runs.
	JobInterval time.Duration `koanf:"job_interval"`

	// DiscoverInterval is how often the discovery job runs.
	DiscoverInterval time.Duration `koanf:"discover_interval"`

	// TaskTimeout bounds a single sync task.
	TaskTimeout time.Duration `koanf:"task_timeout"`

	Tasks TaskToggles `koanf:"tasks"`
}

// TaskToggles switches individual sync tasks on or off. A disabled task
// reports SKIPPED.
type TaskToggles struct {
	General             bool `koanf:"general"`
	OS                  bool `koanf:"os"`
	Software            bool `koanf:"software"`
	User                bool `koanf:"user"`
	Purchasing          bool `koanf:"purchasing"`
	ExtensionAttributes bool `koanf:"extension_attributes"`
	Security            bool `koanf:"security"`
	Network             bool `koanf:"network"`
	Components          bool `koanf:"components"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// ServerConfig holds the trigger API listener settings.
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables cross-origin access.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow, keyed by client IP. Zero
	// disables limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// AuthConfig controls authentication and authorization of the trigger API.
type AuthConfig struct {
	// Mode is proxy (default), jwt, basic or multi (jwt then basic).
	Mode string `koanf:"mode"`

	JWTSecret string        `koanf:"jwt_secret"`
	JWTIssuer string        `koanf:"jwt_issuer"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	BasicUsername string `koanf:"basic_username"`
	BasicPassword string `koanf:"basic_password"`

	// DefaultRole applies to authenticated callers that carry no role.
	DefaultRole string `koanf:"default_role"`

	// PolicyPath replaces the built-in Casbin policy. Empty uses the
	// built-in one.
	PolicyPath string `koanf:"policy_path"`

	DecisionCacheTTL time.Duration `koanf:"decision_cache_ttl"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuditConfig controls the audit trail of commands and registry changes.
type AuditConfig struct {
	Enabled       bool `koanf:"enabled"`
	RetentionDays int  `koanf:"retention_days"`
	BufferSize    int  `koanf:"buffer_size"`
	LogToStdout   bool `koanf:"log_to_stdout"`
}

// BackupConfig controls scheduled snapshots of the local store.
type BackupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`

	// Retain is how many archives are kept; older ones are removed after
	// each new backup.
	Retain int `koanf:"retain"`

	// CompressionLevel is a gzip level, -1 (default) to 9.
	CompressionLevel int `koanf:"compression_level"`
}

// EventsConfig controls publishing of device lifecycle events to NATS
// JetStream.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL of an external NATS server. Ignored when Embedded is set.
	URL string `koanf:"url"`

	// Embedded runs an in-process NATS server with JetStream storage in
	// StoreDir.
	Embedded bool   `koanf:"embedded"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	StoreDir string `koanf:"store_dir"`

	Stream        string `koanf:"stream"`
	SubjectPrefix string `koanf:"subject_prefix"`
	RetentionDays int    `koanf:"retention_days"`

	WAL WALConfig `koanf:"wal"`
}

// WALConfig controls the BadgerDB write-ahead log that holds device events
// until NATS acknowledges them.
type WALConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`

	// RetryInterval is how often unacknowledged events are republished.
	RetryInterval time.Duration `koanf:"retry_interval"`
	MaxRetries    int           `koanf:"max_retries"`
	RetryBackoff  time.Duration `koanf:"retry_backoff"`

	CompactInterval time.Duration `koanf:"compact_interval"`

	// EntryTTL drops events that were never acknowledged.
	EntryTTL time.Duration `koanf:"entry_ttl"`
}

// RuleConfig is one import rule. Rules are evaluated in order.
type RuleConfig struct {
	Name string `koanf:"name" validate:"required"`

	// Match combines criteria: "and" (default) or "or".
	Match string `koanf:"match" validate:"omitempty,oneof=and or"`

	// Stop ends evaluation after this rule matches.
	Stop bool `koanf:"stop"`

	Criteria []CriterionConfig `koanf:"criteria" validate:"dive"`
	Actions  []ActionConfig    `koanf:"actions" validate:"required,min=1,dive"`
}

// CriterionConfig tests one input field.
type CriterionConfig struct {
	Field     string `koanf:"field" validate:"required"`
	Condition string `koanf:"condition" validate:"required,oneof=is is_not contains not_contains regex not_regex older_than newer_than exists"`
	Pattern   string `koanf:"pattern"`
}

// ActionConfig assigns a value to an output field. Assigning "false" to
// _import drops the device.
type ActionConfig struct {
	Field string `koanf:"field" validate:"required"`
	Value string `koanf:"value"`
}

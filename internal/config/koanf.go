// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/jamfsync/config.yaml",
	"/etc/jamfsync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Categories known to the sync engine.
var defaultCategories = []string{"Computer", "MobileDevice"}

func defaultConfig() *Config {
	return &Config{
		Jamf: JamfConfig{
			Timeout:            30 * time.Second,
			PageSize:           1000,
			RateLimit:          10,
			RateLimitBurst:     5,
			RateLimitFaultCode: "TOO_MANY_REQUESTS",
			PrivilegeCacheTTL:  30 * time.Minute,
		},
		Sync: SyncConfig{
			Categories:       append([]string(nil), defaultCategories...),
			AutoImport:       false,
			Interval:         time.Hour,
			JobInterval:      5 * time.Minute,
			DiscoverInterval: 24 * time.Hour,
			TaskTimeout:      30 * time.Second,
			Tasks: TaskToggles{
				General:             true,
				OS:                  true,
				Software:            true,
				User:                true,
				Purchasing:          true,
				ExtensionAttributes: true,
				Security:            true,
				Network:             true,
				Components:          true,
			},
		},
		Database: DatabaseConfig{
			Path:      "/data/jamfsync.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = DuckDB default
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8420,
			Timeout: 60 * time.Second,

			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Auth: AuthConfig{
			Mode:             "proxy",
			TokenTTL:         24 * time.Hour,
			DefaultRole:      "viewer",
			DecisionCacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: 365,
			BufferSize:    256,
		},
		Backup: BackupConfig{
			Dir:              "/data/backups",
			Interval:         24 * time.Hour,
			Retain:           7,
			CompressionLevel: -1,
		},
		Events: EventsConfig{
			URL:           "nats://127.0.0.1:4222",
			Host:          "127.0.0.1",
			Port:          4222,
			StoreDir:      "/data/nats",
			Stream:        "JAMFSYNC_DEVICES",
			SubjectPrefix: "jamfsync.devices",
			RetentionDays: 7,
			WAL: WALConfig{
				Enabled:         true,
				Path:            "/data/wal",
				SyncWrites:      true,
				RetryInterval:   30 * time.Second,
				MaxRetries:      100,
				RetryBackoff:    5 * time.Second,
				CompactInterval: time.Hour,
				EntryTTL:        7 * 24 * time.Hour,
			},
		},
	}
}

// LoadWithKoanf loads configuration from defaults, the optional YAML file and
// the environment, in that order of increasing precedence, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Jamf.URL = strings.TrimRight(cfg.Jamf.URL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FilePath returns the config file LoadWithKoanf reads, or "" if none exists.
func FilePath() string {
	return findConfigFile()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings (env vars).
var sliceConfigPaths = []string{
	"sync.categories",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"jamf_url":                   "jamf.url",
	"jamf_username":              "jamf.username",
	"jamf_password":              "jamf.password",
	"jamf_client_id":             "jamf.client_id",
	"jamf_client_secret":         "jamf.client_secret",
	"jamf_timeout":               "jamf.timeout",
	"jamf_page_size":             "jamf.page_size",
	"jamf_rate_limit":            "jamf.rate_limit",
	"jamf_rate_limit_burst":      "jamf.rate_limit_burst",
	"jamf_rate_limit_fault_code": "jamf.rate_limit_fault_code",
	"jamf_privilege_cache_ttl":   "jamf.privilege_cache_ttl",

	"sync_categories":                "sync.categories",
	"sync_auto_import":               "sync.auto_import",
	"sync_interval":                  "sync.interval",
	"sync_job_interval":              "sync.job_interval",
	"discover_interval":              "sync.discover_interval",
	"sync_task_timeout":              "sync.task_timeout",
	"sync_task_general":              "sync.tasks.general",
	"sync_task_os":                   "sync.tasks.os",
	"sync_task_software":             "sync.tasks.software",
	"sync_task_user":                 "sync.tasks.user",
	"sync_task_purchasing":           "sync.tasks.purchasing",
	"sync_task_extension_attributes": "sync.tasks.extension_attributes",
	"sync_task_security":             "sync.tasks.security",
	"sync_task_network":              "sync.tasks.network",
	"sync_task_components":           "sync.tasks.components",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"http_enabled": "server.enabled",
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	"http_cors_origins":        "server.cors_origins",
	"http_rate_limit_requests": "server.rate_limit_requests",
	"http_rate_limit_window":   "server.rate_limit_window",

	"auth_mode":                "auth.mode",
	"jwt_secret":               "auth.jwt_secret",
	"jwt_issuer":               "auth.jwt_issuer",
	"jwt_token_ttl":            "auth.token_ttl",
	"basic_auth_username":      "auth.basic_username",
	"basic_auth_password":      "auth.basic_password",
	"auth_default_role":        "auth.default_role",
	"authz_policy_path":        "auth.policy_path",
	"authz_decision_cache_ttl": "auth.decision_cache_ttl",

	"audit_enabled":            "audit.enabled",
	"audit_retention_days":     "audit.retention_days",
	"audit_buffer_size":        "audit.buffer_size",
	"audit_log_to_stdout":      "audit.log_to_stdout",
	"backup_enabled":           "backup.enabled",
	"backup_dir":               "backup.dir",
	"backup_interval":          "backup.interval",
	"backup_retain":            "backup.retain",
	"backup_compression_level": "backup.compression_level",

	"events_enabled":      "events.enabled",
	"nats_url":            "events.url",
	"nats_embedded":       "events.embedded",
	"nats_host":           "events.host",
	"nats_port":           "events.port",
	"nats_store_dir":      "events.store_dir",
	"nats_stream":         "events.stream",
	"nats_subject_prefix": "events.subject_prefix",
	"nats_retention_days": "events.retention_days",

	"wal_enabled":          "events.wal.enabled",
	"wal_path":             "events.wal.path",
	"wal_sync_writes":      "events.wal.sync_writes",
	"wal_retry_interval":   "events.wal.retry_interval",
	"wal_max_retries":      "events.wal.max_retries",
	"wal_retry_backoff":    "events.wal.retry_backoff",
	"wal_compact_interval": "events.wal.compact_interval",
	"wal_entry_ttl":        "events.wal.entry_ttl",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths. Unmapped
// variables are dropped so unrelated environment does not leak into config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller guards any shared Config it swaps in.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

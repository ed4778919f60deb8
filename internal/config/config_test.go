// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Jamf.URL = "https://example.jamfcloud.com"
	cfg.Jamf.ClientID = "client"
	cfg.Jamf.ClientSecret = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid client credentials", func(*Config) {}, ""},
		{"missing url", func(c *Config) { c.Jamf.URL = "" }, "JAMF_URL is required"},
		{"bad scheme", func(c *Config) { c.Jamf.URL = "ftp://jamf" }, "scheme must be http or https"},
		{"no credentials", func(c *Config) { c.Jamf.ClientID = "" }, "JAMF_USERNAME/JAMF_PASSWORD"},
		{"page size", func(c *Config) { c.Jamf.PageSize = 0 }, "JAMF_PAGE_SIZE"},
		{"unknown category", func(c *Config) { c.Sync.Categories = []string{"Printer"} }, "unknown category"},
		{"no categories", func(c *Config) { c.Sync.Categories = nil }, "at least one category"},
		{"task timeout", func(c *Config) { c.Sync.TaskTimeout = 0 }, "SYNC_TASK_TIMEOUT"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"port ignored when disabled", func(c *Config) { c.Server.Enabled = false; c.Server.Port = 0 }, ""},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"audit retention", func(c *Config) { c.Audit.RetentionDays = -1 }, "AUDIT_RETENTION_DAYS"},
		{"events url", func(c *Config) { c.Events.Enabled = true; c.Events.URL = "http://nats" }, "NATS_URL"},
		{"events stream name", func(c *Config) { c.Events.Enabled = true; c.Events.Stream = "jamf.devices" }, "NATS_STREAM"},
		{"embedded events skip url", func(c *Config) { c.Events.Enabled = true; c.Events.Embedded = true; c.Events.URL = "" }, ""},
		{"embedded events store", func(c *Config) { c.Events.Enabled = true; c.Events.Embedded = true; c.Events.StoreDir = "" }, "NATS_STORE_DIR"},
		{"auth mode", func(c *Config) { c.Auth.Mode = "oidc" }, "AUTH_MODE"},
		{"jwt secret", func(c *Config) { c.Auth.Mode = "jwt"; c.Auth.JWTSecret = "short" }, "JWT_SECRET"},
		{"basic credentials", func(c *Config) { c.Auth.Mode = "multi"; c.Auth.JWTSecret = strings.Repeat("s", 32) }, "BASIC_AUTH_USERNAME"},
		{"default role", func(c *Config) { c.Auth.DefaultRole = "root" }, "AUTH_DEFAULT_ROLE"},
		{"wal path", func(c *Config) { c.Events.Enabled = true; c.Events.WAL.Path = "" }, "WAL_PATH"},
		{"wal ttl", func(c *Config) { c.Events.Enabled = true; c.Events.WAL.EntryTTL = time.Minute }, "WAL_ENTRY_TTL"},
		{"wal disabled skips checks", func(c *Config) { c.Events.Enabled = true; c.Events.WAL.Enabled = false; c.Events.WAL.Path = "" }, ""},
		{"backup retain", func(c *Config) { c.Backup.Enabled = true; c.Backup.Retain = 0 }, "BACKUP_RETAIN"},
		{"backup in-memory db", func(c *Config) { c.Backup.Enabled = true; c.Database.Path = ":memory:" }, ":memory:"},
		{"backup compression", func(c *Config) { c.Backup.Enabled = true; c.Backup.CompressionLevel = 11 }, "BACKUP_COMPRESSION_LEVEL"},
		{"rule without actions", func(c *Config) { c.Rules = []RuleConfig{{Name: "empty"}} }, "rules[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestUsesClientCredentials(t *testing.T) {
	if !validConfig().Jamf.UsesClientCredentials() {
		t.Error("expected client credentials to be detected")
	}
	if (JamfConfig{Username: "u", Password: "p"}).UsesClientCredentials() {
		t.Error("expected user credentials to not count as client credentials")
	}
}

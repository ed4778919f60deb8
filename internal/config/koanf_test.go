// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setRequiredEnv sets the minimum environment for a valid configuration and
// points CONFIG_PATH at a file that does not exist.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("JAMF_URL", "https://example.jamfcloud.com/")
	t.Setenv("JAMF_USERNAME", "api")
	t.Setenv("JAMF_PASSWORD", "secret")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Jamf.PageSize != 1000 {
		t.Errorf("Jamf.PageSize = %d, want 1000", cfg.Jamf.PageSize)
	}
	if cfg.Jamf.RateLimitFaultCode != "TOO_MANY_REQUESTS" {
		t.Errorf("Jamf.RateLimitFaultCode = %q, want TOO_MANY_REQUESTS", cfg.Jamf.RateLimitFaultCode)
	}
	if cfg.Sync.AutoImport {
		t.Error("Sync.AutoImport should be false by default")
	}
	if len(cfg.Sync.Categories) != 2 {
		t.Errorf("Sync.Categories = %v, want both categories", cfg.Sync.Categories)
	}
	if !cfg.Sync.Tasks.Security || !cfg.Sync.Tasks.ExtensionAttributes {
		t.Error("all sync tasks should be enabled by default")
	}
	if cfg.Database.Path != "/data/jamfsync.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_CATEGORIES", "MobileDevice")
	t.Setenv("SYNC_AUTO_IMPORT", "true")
	t.Setenv("SYNC_INTERVAL", "2h")
	t.Setenv("SYNC_TASK_SECURITY", "false")
	t.Setenv("JAMF_RATE_LIMIT_FAULT_CODE", "THROTTLED")
	t.Setenv("HTTP_CORS_ORIGINS", "https://glpi.example.com, https://helpdesk.example.com")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Jamf.URL != "https://example.jamfcloud.com" {
		t.Errorf("Jamf.URL = %q, want trailing slash trimmed", cfg.Jamf.URL)
	}
	if len(cfg.Sync.Categories) != 1 || cfg.Sync.Categories[0] != "MobileDevice" {
		t.Errorf("Sync.Categories = %v, want [MobileDevice]", cfg.Sync.Categories)
	}
	if !cfg.Sync.AutoImport {
		t.Error("Sync.AutoImport should be true")
	}
	if cfg.Sync.Interval != 2*time.Hour {
		t.Errorf("Sync.Interval = %v, want 2h", cfg.Sync.Interval)
	}
	if cfg.Sync.Tasks.Security {
		t.Error("Sync.Tasks.Security should be disabled")
	}
	if !cfg.Sync.Tasks.General {
		t.Error("Sync.Tasks.General should keep its default")
	}
	if cfg.Jamf.RateLimitFaultCode != "THROTTLED" {
		t.Errorf("Jamf.RateLimitFaultCode = %q, want THROTTLED", cfg.Jamf.RateLimitFaultCode)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://helpdesk.example.com" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadWithKoanf_FileWithRules(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
jamf:
  page_size: 250
sync:
  discover_interval: 6h
rules:
  - name: skip unmanaged
    criteria:
      - field: managed
        condition: is
        pattern: "false"
    actions:
      - field: _import
        value: "false"
  - name: phones
    match: or
    criteria:
      - field: name
        condition: regex
        pattern: "^iPhone"
    actions:
      - field: itemtype
        value: Phone
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Jamf.PageSize != 250 {
		t.Errorf("Jamf.PageSize = %d, want 250", cfg.Jamf.PageSize)
	}
	if cfg.Sync.DiscoverInterval != 6*time.Hour {
		t.Errorf("Sync.DiscoverInterval = %v, want 6h", cfg.Sync.DiscoverInterval)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(cfg.Rules))
	}
	if cfg.Rules[0].Actions[0].Field != "_import" {
		t.Errorf("Rules[0] action field = %q", cfg.Rules[0].Actions[0].Field)
	}
	if cfg.Rules[1].Match != "or" {
		t.Errorf("Rules[1].Match = %q, want or", cfg.Rules[1].Match)
	}
}

func TestLoadWithKoanf_InvalidRule(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
rules:
  - name: broken
    criteria:
      - field: name
        condition: sounds_like
        pattern: x
    actions:
      - field: itemtype
        value: Phone
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "rules[0]") {
		t.Fatalf("expected rules[0] validation error, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"JAMF_URL":           "jamf.url",
		"SYNC_TASK_SECURITY": "sync.tasks.security",
		"DUCKDB_PATH":        "database.path",
		"LOG_LEVEL":          "logging.level",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

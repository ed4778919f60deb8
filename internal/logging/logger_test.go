// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("category", "Computer").Msg("discovery finished")

	out := buf.String()
	if !strings.Contains(out, `"message":"discovery finished"`) {
		t.Errorf("expected message field, got: %s", out)
	}
	if !strings.Contains(out, `"category":"Computer"`) {
		t.Errorf("expected category field, got: %s", out)
	}
}

func TestCtxAddsCorrelationAndDevice(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithDevice(ctx, "MobileDevice", 7)

	Ctx(ctx).Info().Msg("run started")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"abc12345"`, `"category":"MobileDevice"`, `"jamf_id":7`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got: %s", want, out)
		}
	}
}

func TestContextWithNewCorrelationIDKeepsExisting(t *testing.T) {
	t.Parallel()

	ctx := ContextWithCorrelationID(context.Background(), "keepme00")
	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(ctx)); got != "keepme00" {
		t.Errorf("expected existing id to be kept, got %q", got)
	}

	fresh := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background()))
	if len(fresh) != 8 {
		t.Errorf("expected 8 character id, got %q", fresh)
	}
}

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &SlogHandler{logger: NewTestLogger(&buf)}
	logger := slog.New(h).With("service", "sync-due").WithGroup("event")

	logger.Warn("service restarted", "attempt", 2)

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", out)
	}
	if !strings.Contains(out, `"service":"sync-due"`) {
		t.Errorf("expected pre-group attr, got: %s", out)
	}
	if !strings.Contains(out, `"event.attempt":2`) {
		t.Errorf("expected grouped attr, got: %s", out)
	}
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/tomtom215/jamfsync/internal/audit"
	"github.com/tomtom215/jamfsync/internal/config"
	syncengine "github.com/tomtom215/jamfsync/internal/sync"
)

func TestAuditTrail(t *testing.T) {
	store := audit.NewMemoryStore(100)
	auditor := audit.NewLogger(store, &audit.Config{Enabled: true, BufferSize: 16})

	engine := &fakeEngine{}
	h := NewRouter(NewHandler(engine, nil, nil).WithAudit(auditor), config.ServerConfig{})

	lock := `{"category":"MobileDevice","command":"DeviceLock","items":[{"itemtype":"Phone","id":3}]}`
	do(t, h, http.MethodPost, "/api/v1/commands", lock, map[string]string{RemoteUserHeader: "helpdesk"})

	engine.err = syncengine.ErrPermissionDenied
	do(t, h, http.MethodPost, "/api/v1/commands", lock, map[string]string{RemoteUserHeader: "intern"})

	engine.err = nil
	do(t, h, http.MethodPost, "/api/v1/items/Computer/7/merge", `{"category":"Computer","jamf_id":42}`, nil)
	do(t, h, http.MethodPost, "/api/v1/items/Computer/7/sync", "", nil)

	if err := auditor.Close(); err != nil {
		t.Fatal(err)
	}

	events, err := store.Query(context.Background(), audit.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("recorded %d events, want 3 (plain syncs are not audited)", len(events))
	}

	merge, denied, sent := events[0], events[1], events[2]
	if merge.Type != audit.EventTypeDeviceMerged || merge.Actor != anonymousActor || merge.JamfID != 42 || merge.ItemsID != 7 {
		t.Errorf("merge event = %+v", merge)
	}
	if denied.Outcome != audit.OutcomeDenied || denied.Actor != "intern" {
		t.Errorf("denied event = %+v", denied)
	}
	if sent.Outcome != audit.OutcomeSuccess || sent.Action != "DeviceLock" || sent.ItemsID != 3 || len(sent.Metadata) == 0 {
		t.Errorf("sent event = %+v", sent)
	}
	if sent.SourceIP == "" {
		t.Error("source ip should be recorded")
	}

	rec, resp := do(t, h, http.MethodGet, "/api/v1/audit?type=command.sent&actor=intern", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /audit = %d", rec.Code)
	}
	list, ok := resp.Data.([]interface{})
	if !ok || len(list) != 1 {
		t.Errorf("filtered audit = %#v", resp.Data)
	}
}

func TestAuditEvents_Params(t *testing.T) {
	disabled := NewRouter(NewHandler(&fakeEngine{}, nil, nil), config.ServerConfig{})
	rec, resp := do(t, disabled, http.MethodGet, "/api/v1/audit", "", nil)
	if rec.Code != http.StatusNotFound || resp.Error.Code != CodeAuditDisabled {
		t.Errorf("disabled audit = %d %+v", rec.Code, resp.Error)
	}

	auditor := audit.NewLogger(audit.NewMemoryStore(10), nil)
	defer auditor.Close()
	h := NewRouter(NewHandler(&fakeEngine{}, nil, nil).WithAudit(auditor), config.ServerConfig{})

	for _, q := range []string{"jamf_id=x", "since=yesterday", "limit=0", "limit=5000"} {
		rec, _ := do(t, h, http.MethodGet, "/api/v1/audit?"+q, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
	rec, resp = do(t, h, http.MethodGet, "/api/v1/audit?since=2026-01-01T00:00:00Z&limit=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("valid query = %d", rec.Code)
	}
	if list, ok := resp.Data.([]interface{}); !ok || len(list) != 0 {
		t.Errorf("empty audit = %#v", resp.Data)
	}
}

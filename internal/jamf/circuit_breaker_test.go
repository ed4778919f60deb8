// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/jamfsync/internal/models"
)

func TestCircuitBreaker_NotFoundDoesNotTrip(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/computers/id/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	cbc := newCircuitBreakerClient(f.client(), "jamf-test-notfound")

	for i := 0; i < 15; i++ {
		if _, err := cbc.GetDevice(context.Background(), models.CategoryComputer, 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("request %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if got := cbc.State(); got != "closed" {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestCircuitBreaker_ServerErrorsTrip(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/computers/id/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	cbc := newCircuitBreakerClient(f.client(), "jamf-test-trip")

	for i := 0; i < 10; i++ {
		_, _ = cbc.GetDevice(context.Background(), models.CategoryComputer, 1)
	}
	if got := cbc.State(); got != "open" {
		t.Fatalf("state = %s, want open", got)
	}

	_, err := cbc.GetDevice(context.Background(), models.CategoryComputer, 1)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestCastResult(t *testing.T) {
	if _, err := castResult[*Privileges]("wrong", nil); err == nil {
		t.Error("expected type error")
	}
	if v, err := castResult[*Privileges](nil, nil); err != nil || v != nil {
		t.Errorf("nil result = %v, %v", v, err)
	}
	boom := errors.New("boom")
	if _, err := castResult[Record](nil, boom); !errors.Is(err, boom) {
		t.Errorf("expected passthrough error, got %v", err)
	}
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/jamfsync/internal/config"
)

func TestTokenSource_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		expires := time.Now().Add(30 * time.Minute).UTC().Format(time.RFC3339)
		_, _ = io.WriteString(w, `{"token":"shared","expires":"`+expires+`"}`)
	}))
	t.Cleanup(srv.Close)

	ts := newTokenSource(srv.URL, srv.Client(), &config.JamfConfig{Username: "api", Password: "secret"})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := ts.Token(ctx)
		firstErr <- err
	}()
	<-entered

	type result struct {
		token string
		err   error
	}
	second := make(chan result, 1)
	go func() {
		token, err := ts.Token(context.Background())
		second <- result{token, err}
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, want context.Canceled", err)
	}

	close(release)
	got := <-second
	if got.err != nil || got.token != "shared" {
		t.Fatalf("waiting caller = %q, %v; want the shared token", got.token, got.err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("token requests = %d, want 1", n)
	}
	if token, ok := ts.cached(); !ok || token != "shared" {
		t.Errorf("cached token = %q, %v", token, ok)
	}
}

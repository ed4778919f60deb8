// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/jamfsync/internal/models"
)

var mobileFixtures = []struct {
	id    int64
	name  string
	model string
	want  string
}{
	{1, "Lab iPad 1", "iPad7,5", models.ItemtypeComputer},
	{2, "Lab iPad 2", "iPad7,5", models.ItemtypeComputer},
	{3, "Field iPhone", "iPhone12,1", models.ItemtypePhone},
	{4, "Kiosk iPad", "iPad11,6", models.ItemtypeComputer},
	{5, "Lobby TV", "AppleTV5,3", models.ItemtypeComputer},
	{6, "Sales iPhone", "iPhone13,2", models.ItemtypePhone},
}

func addMobileFleet(t *testing.T, env *testEnv) {
	t.Helper()
	for _, m := range mobileFixtures {
		env.source.addRecord(t, models.CategoryMobileDevice, m.id, mobileRecord(m.id, m.name, m.model, true))
	}
}

func TestDiscover_QueuesPendingCandidates(t *testing.T) {
	env := setupEngine(t, nil, nil)
	ctx := context.Background()
	addMobileFleet(t, env)

	n, err := env.engine.Discover(ctx, models.CategoryMobileDevice)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if n != 6 {
		t.Fatalf("Discover = %d, want 6", n)
	}

	pending, err := env.engine.ListPending(ctx, models.CategoryMobileDevice)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 6 {
		t.Fatalf("pending = %d, want 6", len(pending))
	}
	got := make(map[int64]string, len(pending))
	for _, p := range pending {
		got[p.JamfID] = p.Itemtype
	}
	for _, m := range mobileFixtures {
		if got[m.id] != m.want {
			t.Errorf("device %d (%s) guessed %s, want %s", m.id, m.model, got[m.id], m.want)
		}
	}

	// Already queued devices are not counted again.
	n, err = env.engine.Discover(ctx, models.CategoryMobileDevice)
	if err != nil || n != 0 {
		t.Errorf("second Discover = %d, %v; want 0", n, err)
	}
}

func TestDiscover_SkipsLinkedDevices(t *testing.T) {
	env := setupEngine(t, nil, nil)
	ctx := context.Background()
	addMobileFleet(t, env)

	if ok, err := env.engine.Import(ctx, models.ItemtypePhone, models.CategoryMobileDevice, 3); err != nil || !ok {
		t.Fatalf("Import = %v, %v", ok, err)
	}
	before, err := env.engine.LookupRemote(ctx, models.CategoryMobileDevice, 3)
	if err != nil {
		t.Fatalf("LookupRemote: %v", err)
	}

	n, err := env.engine.Discover(ctx, models.CategoryMobileDevice)
	if err != nil || n != 5 {
		t.Fatalf("Discover = %d, %v; want 5", n, err)
	}

	after, err := env.engine.LookupRemote(ctx, models.CategoryMobileDevice, 3)
	if err != nil {
		t.Fatalf("LookupRemote: %v", err)
	}
	if !after.SyncDate.Equal(*before.SyncDate) || after.ID != before.ID {
		t.Error("discovery must not touch device links")
	}
}

func TestDiscover_AutoImport(t *testing.T) {
	cfg := testConfig()
	cfg.Sync.AutoImport = true
	env := setupEngine(t, cfg, nil)
	ctx := context.Background()
	addMobileFleet(t, env)

	n, err := env.engine.Discover(ctx, models.CategoryMobileDevice)
	if err != nil || n != 6 {
		t.Fatalf("Discover = %d, %v; want 6", n, err)
	}
	for _, m := range mobileFixtures {
		link, err := env.engine.LookupRemote(ctx, models.CategoryMobileDevice, m.id)
		if err != nil {
			t.Errorf("device %d not linked: %v", m.id, err)
			continue
		}
		if link.Itemtype != m.want {
			t.Errorf("device %d imported as %s, want %s", m.id, link.Itemtype, m.want)
		}
	}
	pending, err := env.engine.ListPending(ctx, "")
	if err != nil || len(pending) != 0 {
		t.Errorf("pending = %+v, %v; want none", pending, err)
	}
}

func TestDiscover_EmptyRemote(t *testing.T) {
	env := setupEngine(t, nil, nil)

	n, err := env.engine.Discover(context.Background(), models.CategoryComputer)
	if err != nil || n != -1 {
		t.Errorf("Discover = %d, %v; want -1, nil", n, err)
	}
}

func TestDiscover_Exclusive(t *testing.T) {
	env := setupEngine(t, nil, nil)
	ctx := context.Background()
	addMobileFleet(t, env)

	env.source.gateCategory = models.CategoryMobileDevice
	env.source.listGate = make(chan struct{})
	env.source.listEntered = make(chan struct{})

	type result struct {
		n   int
		err error
	}
	first := make(chan result, 1)
	go func() {
		n, err := env.engine.Discover(ctx, models.CategoryMobileDevice)
		first <- result{n, err}
	}()
	<-env.source.listEntered

	_, err := env.engine.Discover(ctx, models.CategoryMobileDevice)
	if !errors.Is(err, ErrJobRunning) {
		t.Errorf("overlapping Discover error = %v, want ErrJobRunning", err)
	}

	// Other categories and the other job are not blocked.
	if n, err := env.engine.Discover(ctx, models.CategoryComputer); err != nil || n != -1 {
		t.Errorf("Discover(Computer) = %d, %v", n, err)
	}
	if _, err := env.engine.SyncAll(ctx, models.CategoryMobileDevice); err != nil {
		t.Errorf("SyncAll during discovery: %v", err)
	}

	close(env.source.listGate)
	res := <-first
	if res.err != nil || res.n != 6 {
		t.Errorf("first Discover = %d, %v; want 6", res.n, res.err)
	}
}

func TestDismissPending(t *testing.T) {
	env := setupEngine(t, nil, nil)
	ctx := context.Background()
	addMobileFleet(t, env)

	if _, err := env.engine.Discover(ctx, models.CategoryMobileDevice); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if err := env.engine.DismissPending(ctx, models.CategoryMobileDevice, 2); err != nil {
		t.Fatalf("DismissPending: %v", err)
	}
	if err := env.engine.DismissPending(ctx, models.CategoryMobileDevice, 2); !errors.Is(err, ErrPendingNotFound) {
		t.Errorf("second DismissPending = %v", err)
	}
	pending, err := env.engine.ListPending(ctx, models.CategoryMobileDevice)
	if err != nil || len(pending) != 5 {
		t.Errorf("pending = %d, %v; want 5", len(pending), err)
	}
	if _, err := env.engine.ListPending(ctx, "Printer"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("ListPending(Printer) = %v", err)
	}
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/jamfsync/internal/logging"
	syncengine "github.com/tomtom215/jamfsync/internal/sync"
)

func TestJobService_RunsOnInterval(t *testing.T) {
	var calls atomic.Int32
	var sawCorrelation atomic.Bool
	svc := NewJobService("sync-due/Computer", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		if logging.CorrelationIDFromContext(ctx) != "" {
			sawCorrelation.Store(true)
		}
		calls.Add(1)
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if calls.Load() < 2 {
		t.Errorf("job ran %d times, want at least 2", calls.Load())
	}
	if !sawCorrelation.Load() {
		t.Error("job context should carry a correlation id")
	}
}

func TestJobService_RunOnStart(t *testing.T) {
	ran := make(chan struct{}, 1)
	svc := NewJobService("discover/MobileDevice", time.Hour, func(context.Context) (int, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return -1, nil
	}).WithRunOnStart()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestJobService_ErrorsDoNotStopService(t *testing.T) {
	var calls atomic.Int32
	svc := NewJobService("sync-due/MobileDevice", 5*time.Millisecond, func(context.Context) (int, error) {
		if calls.Add(1)%2 == 0 {
			return 0, syncengine.ErrJobRunning
		}
		return 0, errors.New("jamf unreachable")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if calls.Load() < 3 {
		t.Errorf("job ran %d times, want the service to keep ticking", calls.Load())
	}
}

func TestJobService_Defaults(t *testing.T) {
	svc := NewJobService("discover/Computer", 0, nil)
	if svc.interval != time.Hour {
		t.Errorf("interval = %v, want 1h default", svc.interval)
	}
	if svc.String() != "discover/Computer" {
		t.Errorf("String() = %q", svc.String())
	}
}

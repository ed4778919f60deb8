// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/jamfsync/internal/logging"
	syncengine "github.com/tomtom215/jamfsync/internal/sync"
)

// Job is one engine pass. It returns how many devices it handled, or -1 when
// there was nothing to do.
type Job func(ctx context.Context) (int, error)

// JobService runs a Job on a fixed interval until the tree stops.
type JobService struct {
	name       string
	interval   time.Duration
	runOnStart bool
	job        Job
}

// NewJobService creates a periodic job. The first pass runs one interval
// after start unless WithRunOnStart is set.
func NewJobService(name string, interval time.Duration, job Job) *JobService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &JobService{name: name, interval: interval, job: job}
}

// WithRunOnStart makes the service run a pass as soon as it starts.
func (s *JobService) WithRunOnStart() *JobService {
	s.runOnStart = true
	return s
}

// Serve implements suture.Service. Job failures are logged, never returned.
func (s *JobService) Serve(ctx context.Context) error {
	logging.Info().Str("job", s.name).Dur("interval", s.interval).Msg("Job scheduled")

	if s.runOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *JobService) runOnce(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()

	count, err := s.job(ctx)
	switch {
	case errors.Is(err, syncengine.ErrJobRunning):
		logging.Ctx(ctx).Debug().Str("job", s.name).Msg("Previous pass still running, skipping tick")
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		logging.Ctx(ctx).Error().Err(err).Str("job", s.name).Msg("Job failed")
	case count < 0:
		logging.Ctx(ctx).Debug().Str("job", s.name).Msg("Nothing to do")
	default:
		logging.Ctx(ctx).Info().
			Str("job", s.name).
			Int("count", count).
			Dur("duration", time.Since(start)).
			Msg("Job finished")
	}
}

// String implements fmt.Stringer.
func (s *JobService) String() string {
	return s.name
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
run.go - Sync Run Lifecycle

A run executes the task chain for one device against one transaction:

 1. Each task in TaskOrder runs with its own time budget and a fresh local
    changeset. Only OK results are merged into the run's changeset, so a task
    that fails half way cannot leak partial writes into its siblings.
 2. finalize stamps sync_date, applies the item, extra and link changes, and
    creates the link when the device had none.
 3. Tasks left DEFERRED are retried exactly once against the new link and
    their changes are applied again.

The caller commits the transaction only when no task ended in ERROR or stayed
DEFERRED.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
	"github.com/tomtom215/jamfsync/internal/models"
)

type run struct {
	engine *Engine
	store  *database.Store
	desc   *descriptor

	item   *models.Item
	jamfID int64
	record jamf.Record

	// link is nil until finalize creates it on a device's first sync.
	link *models.DeviceLink

	changes  *Changeset
	outcomes Outcomes
}

// runInput is everything a run needs. override holds values set by the
// caller, such as import_date or a rule-rewritten name; they win over task
// output.
type runInput struct {
	store    *database.Store
	desc     *descriptor
	item     *models.Item
	link     *models.DeviceLink
	jamfID   int64
	record   jamf.Record
	override *Changeset
}

// runSync executes the chain and finalize inside the caller's transaction.
func (e *Engine) runSync(ctx context.Context, in runInput) (Outcomes, error) {
	r := &run{
		engine:  e,
		store:   in.store,
		desc:    in.desc,
		item:    in.item,
		jamfID:  in.jamfID,
		record:  in.record,
		link:    in.link,
		changes: NewChangeset(),
	}
	for _, task := range TaskOrder {
		r.outcomes.set(r.runTask(ctx, task, r.changes))
	}
	if in.override != nil {
		r.changes.Merge(in.override)
	}

	if err := r.finalize(ctx); err != nil {
		return r.outcomes, err
	}

	for _, t := range r.outcomes {
		metrics.RecordTaskOutcome(r.desc.category, string(t.Task), string(t.Outcome))
	}

	if failed := r.outcomes.Failed(); len(failed) > 0 {
		return r.outcomes, &RunError{Itemtype: r.item.Itemtype, ItemsID: r.item.ID, Failed: failed}
	}
	return r.outcomes, nil
}

// runTask runs one task and merges its changes into into when it succeeds.
func (r *run) runTask(ctx context.Context, task Task, into *Changeset) TaskOutcome {
	fn := taskFor(r.desc, task)
	if fn == nil {
		return TaskOutcome{Task: task, Outcome: OutcomeNotApplicable}
	}
	if !r.engine.enabled(task) {
		return TaskOutcome{Task: task, Outcome: OutcomeSkipped}
	}

	tctx, cancel := context.WithTimeout(ctx, r.engine.cfg.TaskTimeout)
	defer cancel()

	local := NewChangeset()
	res := fn(tctx, r, local)
	if res.Outcome == OutcomeOK && tctx.Err() != nil {
		res = failed(fmt.Errorf("task %s: %w", task, tctx.Err()))
	}

	switch res.Outcome {
	case OutcomeOK:
		into.Merge(local)
	case OutcomeError:
		logging.Ctx(ctx).Warn().Err(res.Err).Str("task", string(task)).Msg("Sync task failed")
	case OutcomeDeferred:
		logging.Ctx(ctx).Debug().Str("task", string(task)).Msg("Sync task deferred until the device link exists")
	}
	return TaskOutcome{Task: task, Outcome: res.Outcome, Err: res.Err}
}

// finalize applies the run's changes, creating the link if needed, then
// retries deferred tasks once.
func (r *run) finalize(ctx context.Context) error {
	r.changes.SetLink("sync_date", r.engine.now().UTC())
	if err := r.apply(ctx, r.changes); err != nil {
		return err
	}

	var retry []Task
	for _, t := range r.outcomes {
		if t.Outcome == OutcomeDeferred {
			retry = append(retry, t.Task)
		}
	}
	if len(retry) == 0 {
		return nil
	}

	again := NewChangeset()
	for _, task := range retry {
		r.outcomes.set(r.runTask(ctx, task, again))
	}
	if again.Empty() {
		return nil
	}
	return r.apply(ctx, again)
}

// apply writes cs through the run's store.
func (r *run) apply(ctx context.Context, cs *Changeset) error {
	if len(cs.Item) > 0 {
		if err := r.store.UpdateItemFields(ctx, r.item.Itemtype, r.item.ID, cs.Item); err != nil {
			return fmt.Errorf("apply item changes: %w", err)
		}
	}

	fields := make([]string, 0, len(cs.Extra))
	for f := range cs.Extra {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if err := r.store.SetExtraField(ctx, r.item.Itemtype, r.item.ID, f, cs.Extra[f]); err != nil {
			return fmt.Errorf("apply extra field %s: %w", f, err)
		}
	}

	if r.link == nil {
		link := &models.DeviceLink{
			Itemtype: r.item.Itemtype,
			ItemsID:  r.item.ID,
			Category: r.desc.category,
			JamfID:   r.jamfID,
		}
		id, err := r.store.CreateDeviceLink(ctx, link)
		if errors.Is(err, database.ErrLinkExists) {
			return fmt.Errorf("%w: %s %d or %s %d", ErrAlreadyLinked,
				r.item.Itemtype, r.item.ID, r.desc.category, r.jamfID)
		}
		if err != nil {
			return fmt.Errorf("create device link: %w", err)
		}
		link.ID = id
		r.link = link
	}

	if len(cs.Link) > 0 {
		if err := r.store.UpdateDeviceLinkFields(ctx, r.link.ID, cs.Link); err != nil {
			return fmt.Errorf("apply link changes: %w", err)
		}
	}
	return nil
}

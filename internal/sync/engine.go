// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
engine.go - Sync Engine Construction and Single Device Sync

The Engine ties the local store, the Jamf data source and the import rules
together. It is constructed once in main and shared by the job services and
the trigger API.

Entry points:
  - Sync(): refresh one linked local item from its Jamf record
  - SyncAll(): refresh every link due for a sync in one category
  - Discover(): list remote devices and import or queue new ones
  - Import(), ImportPending(): create a local item for a remote device
  - Merge(), Unmerge(), DeleteItem(): device registry maintenance
  - SendCommand(): push an MDM command after a privilege check

Thread Safety:
  - devices: one run per remote device at a time
  - jobs: one batch job per (job, category) at a time
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/jamfsync/internal/cache"
	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
	"github.com/tomtom215/jamfsync/internal/models"
	"github.com/tomtom215/jamfsync/internal/rules"
)

// DataSource is the remote side of the engine. Both jamf.Client and
// jamf.CircuitBreakerClient implement it.
type DataSource interface {
	GetDevice(ctx context.Context, category string, id int64) (jamf.Record, error)
	ListDevices(ctx context.Context, category string) ([]jamf.DeviceSummary, error)
	ListExtensionAttributes(ctx context.Context, category string) ([]jamf.ExtensionAttributeSummary, error)
	GetExtensionAttribute(ctx context.Context, category string, id int64) (*jamf.ExtensionAttribute, error)
	SendCommand(ctx context.Context, category string, cmd jamf.Command) error
	GetAccountPrivileges(ctx context.Context, username string) (*jamf.Privileges, error)
}

var _ DataSource = (jamf.ClientInterface)(nil)

// Engine reconciles Jamf devices with local items.
type Engine struct {
	db     *database.DB
	source DataSource
	rules  atomic.Pointer[ruleSet]
	cfg    config.SyncConfig

	privileges *cache.Cache[*jamf.Privileges]

	devices *keyedMutex
	jobs    jobLocks

	sinks []EventSink

	now func() time.Time
}

// NewEngine creates an engine. A nil evaluator allows every import.
func NewEngine(db *database.DB, source DataSource, evaluator rules.Evaluator, cfg *config.Config) *Engine {
	if evaluator == nil {
		evaluator, _ = rules.NewCollection(nil)
	}

	ttl := cfg.Jamf.PrivilegeCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	e := &Engine{
		db:         db,
		source:     source,
		cfg:        cfg.Sync,
		privileges: cache.New[*jamf.Privileges](ttl, ttl),
		devices:    newKeyedMutex(),
		now:        time.Now,
	}
	e.rules.Store(&ruleSet{evaluator})
	return e
}

type ruleSet struct {
	rules.Evaluator
}

// SetRules swaps the import rules. Imports already evaluating keep the old
// set.
func (e *Engine) SetRules(evaluator rules.Evaluator) {
	if evaluator == nil {
		evaluator, _ = rules.NewCollection(nil)
	}
	e.rules.Store(&ruleSet{evaluator})
}

func (e *Engine) evaluator() rules.Evaluator {
	return e.rules.Load().Evaluator
}

// Close releases background resources.
func (e *Engine) Close() {
	e.privileges.Close()
}

// Categories returns the enabled remote categories.
func (e *Engine) Categories() []string {
	return e.cfg.Categories
}

// enabled reports whether task is switched on in configuration. The
// bookkeeping and category specific tasks are always on.
func (e *Engine) enabled(task Task) bool {
	t := e.cfg.Tasks
	switch task {
	case TaskGeneral:
		return t.General
	case TaskOS:
		return t.OS
	case TaskSoftware:
		return t.Software
	case TaskUser:
		return t.User
	case TaskPurchasing:
		return t.Purchasing
	case TaskExtensionAttributes:
		return t.ExtensionAttributes
	case TaskSecurity:
		return t.Security
	case TaskNetwork:
		return t.Network || t.Components
	default:
		return true
	}
}

// fetchRecord reads a device from Jamf, mapping a missing device to
// ErrRemoteNotFound.
func (e *Engine) fetchRecord(ctx context.Context, category string, jamfID int64) (jamf.Record, error) {
	rec, err := e.source.GetDevice(ctx, category, jamfID)
	if errors.Is(err, jamf.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrRemoteNotFound, category, jamfID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", category, jamfID, err)
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("%w: %s %d returned an empty record", ErrRemoteNotFound, category, jamfID)
	}
	return rec, nil
}

// Sync refreshes one linked local item from Jamf. All writes of the run land
// in one transaction; any task ending in ERROR, or still DEFERRED after the
// retry, rolls the run back and is reported as a *RunError.
func (e *Engine) Sync(ctx context.Context, itemtype string, id int64) (Outcomes, error) {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}

	item, err := e.db.GetItem(ctx, itemtype, id)
	if errors.Is(err, database.ErrItemNotFound) {
		logging.Ctx(ctx).Error().Str("itemtype", itemtype).Int64("items_id", id).Msg("Sync requested for a missing item")
		return nil, fmt.Errorf("%w: %s %d", ErrItemNotFound, itemtype, id)
	}
	if err != nil {
		return nil, err
	}

	link, err := e.db.GetDeviceLinkByItem(ctx, itemtype, id)
	if errors.Is(err, database.ErrLinkNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotLinked, itemtype, id)
	}
	if err != nil {
		return nil, err
	}

	return e.syncLinked(ctx, item, link)
}

// syncLinked runs a sync for an existing link under the device lock.
func (e *Engine) syncLinked(ctx context.Context, item *models.Item, link *models.DeviceLink) (Outcomes, error) {
	ctx = logging.ContextWithDevice(ctx, link.Category, link.JamfID)

	desc, err := descriptorFor(link.Category)
	if err != nil {
		return nil, err
	}

	unlock := e.devices.Lock(deviceKey(link.Category, link.JamfID))
	defer unlock()

	start := time.Now()
	record, err := e.fetchRecord(ctx, link.Category, link.JamfID)
	if err != nil {
		metrics.RecordSyncRun(link.Category, time.Since(start), err)
		return nil, err
	}

	var outcomes Outcomes
	err = e.db.WithTx(ctx, func(s *database.Store) error {
		var runErr error
		outcomes, runErr = e.runSync(ctx, runInput{
			store:  s,
			desc:   desc,
			item:   item,
			link:   link,
			jamfID: link.JamfID,
			record: record,
		})
		return runErr
	})
	metrics.RecordSyncRun(link.Category, time.Since(start), err)

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("itemtype", item.Itemtype).Int64("items_id", item.ID).
			Msg("Sync failed, changes rolled back")
		ev := itemEvent(events.DeviceSyncFailed, link.Category, link.JamfID, item.Itemtype, item.ID)
		ev.Tasks = outcomes.taskMap()
		ev.Error = err.Error()
		e.emit(ctx, ev)
		return outcomes, err
	}

	ev := itemEvent(events.DeviceSynced, link.Category, link.JamfID, item.Itemtype, item.ID)
	ev.Tasks = outcomes.taskMap()
	e.emit(ctx, ev)

	logging.Ctx(ctx).Debug().
		Str("itemtype", item.Itemtype).Int64("items_id", item.ID).
		Dur("duration", time.Since(start)).
		Msg("Sync completed")
	return outcomes, nil
}

// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/models"
	"github.com/tomtom215/jamfsync/internal/rules"
)

// testDBSemaphore serializes DuckDB tests; concurrent CGO database creation
// is slow and flaky under CI resource limits.
var testDBSemaphore = make(chan struct{}, 1)

// fakeSource is an in-memory DataSource.
type fakeSource struct {
	mu         sync.Mutex
	records    map[string]jamf.Record
	devices    map[string][]jamf.DeviceSummary
	extAttrs   map[string][]jamf.ExtensionAttribute
	privileges map[string]*jamf.Privileges
	sent       []jamf.Command
	privCalls  int

	// listGate, when set, blocks ListDevices of gateCategory until closed.
	gateCategory string
	listGate     chan struct{}
	listEntered  chan struct{}
}

var _ DataSource = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{
		records:    make(map[string]jamf.Record),
		devices:    make(map[string][]jamf.DeviceSummary),
		extAttrs:   make(map[string][]jamf.ExtensionAttribute),
		privileges: make(map[string]*jamf.Privileges),
	}
}

func (f *fakeSource) addRecord(t *testing.T, category string, id int64, raw string) {
	t.Helper()
	var rec jamf.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[deviceKey(category, id)] = rec
	f.devices[category] = append(f.devices[category], jamf.DeviceSummary{
		ID:              id,
		Name:            rec.String("general.name"),
		UDID:            rec.String("general.udid"),
		Serial:          rec.String("general.serial_number"),
		ModelIdentifier: rec.String("general.model_identifier"),
	})
}

func (f *fakeSource) GetDevice(_ context.Context, category string, id int64) (jamf.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[deviceKey(category, id)]
	if !ok {
		return nil, fmt.Errorf("device %d: %w", id, jamf.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeSource) ListDevices(ctx context.Context, category string) ([]jamf.DeviceSummary, error) {
	if f.listGate != nil && category == f.gateCategory {
		close(f.listEntered)
		select {
		case <-f.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]jamf.DeviceSummary(nil), f.devices[category]...), nil
}

func (f *fakeSource) ListExtensionAttributes(_ context.Context, category string) ([]jamf.ExtensionAttributeSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []jamf.ExtensionAttributeSummary
	for _, ea := range f.extAttrs[category] {
		out = append(out, jamf.ExtensionAttributeSummary{ID: ea.ID, Name: ea.Name})
	}
	return out, nil
}

func (f *fakeSource) GetExtensionAttribute(_ context.Context, category string, id int64) (*jamf.ExtensionAttribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.extAttrs[category] {
		if f.extAttrs[category][i].ID == id {
			ea := f.extAttrs[category][i]
			return &ea, nil
		}
	}
	return nil, jamf.ErrNotFound
}

func (f *fakeSource) SendCommand(_ context.Context, _ string, cmd jamf.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSource) GetAccountPrivileges(_ context.Context, username string) (*jamf.Privileges, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.privCalls++
	p, ok := f.privileges[username]
	if !ok {
		return nil, jamf.ErrNotFound
	}
	return p, nil
}

// testClock is a settable engine clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		Jamf: config.JamfConfig{PrivilegeCacheTTL: time.Minute},
		Sync: config.SyncConfig{
			Categories:  []string{models.CategoryComputer, models.CategoryMobileDevice},
			Interval:    time.Hour,
			TaskTimeout: 5 * time.Second,
			Tasks: config.TaskToggles{
				General: true, OS: true, Software: true, User: true, Purchasing: true,
				ExtensionAttributes: true, Security: true, Network: true, Components: true,
			},
		},
	}
}

type testEnv struct {
	engine *Engine
	db     *database.DB
	source *fakeSource
	clock  *testClock
}

func setupEngine(t *testing.T, cfg *config.Config, evaluator rules.Evaluator) *testEnv {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("close: %v", err)
		}
	})

	if cfg == nil {
		cfg = testConfig()
	}
	src := newFakeSource()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	e := NewEngine(db, src, evaluator, cfg)
	e.now = clock.Now
	t.Cleanup(e.Close)

	return &testEnv{engine: e, db: db, source: src, clock: clock}
}

// swapTask replaces a shared task for the duration of the test.
func swapTask(t *testing.T, task Task, fn taskFunc) {
	t.Helper()
	orig := commonTasks[task]
	commonTasks[task] = fn
	t.Cleanup(func() { commonTasks[task] = orig })
}

const (
	computerUDID = "55900BDC-347C-58B1-D249-F32244B11D30"

	computerRecord = `{
  "general":{"id":1,"name":"CConardMBA","udid":"55900BDC-347C-58B1-D249-F32244B11D30",
    "serial_number":"C02Q7KHTGFWF","asset_tag":"A-100","ip_address":"10.0.0.12",
    "mac_address":"8C:85:90:AA:BB:CC","remote_management":{"managed":true},"supervised":false,
    "report_date_utc":"2019-12-11T15:08:46.340+0000",
    "initial_entry_date_utc":"2019-04-23T17:04:45.212+0000"},
  "hardware":{"model":"13-inch MacBook Air","model_identifier":"MacBookAir7,2",
    "os_name":"Mac OS X","os_version":"10.14.6","os_build":"18G103",
    "processor_type":"Intel Core i5","total_ram_mb":8192,
    "storage":[{"disk":"disk0","model":"APPLE SSD","drive_capacity_mb":121000}]},
  "software":{"applications":[
    {"name":"Safari.app","version":"13.0.4","path":"/Applications/Safari.app"},
    {"name":"Keynote.app","version":"9.2","path":"/Applications/Keynote.app"}]},
  "location":{"username":"cconard","realname":"Carl Conard","email_address":"cconard@example.com","phone":"555-0100"},
  "purchasing":{"is_purchased":true,"is_leased":false,"po_number":"PO-7","vendor":"Apple",
    "warranty_expires_utc":"2021-04-23T00:00:00.000+0000"},
  "extension_attributes":[{"id":1,"name":"Battery","type":"String","value":"Normal"}]
}`
)

// mobileRecord returns a mobile device record. Devices without a security
// section mirror what Jamf sends for unsupervised hardware.
func mobileRecord(id int64, name, model string, withSecurity bool) string {
	security := ""
	if withSecurity {
		security = `,"security":{"activation_lock_enabled":true,"lost_mode_enabled":false,"passcode_present":true}`
	}
	return fmt.Sprintf(`{
  "general":{"id":%d,"name":%q,"udid":"UDID-MOBILE-%04d","serial_number":"SER%04d",
    "model":"device","model_identifier":%q,"os_type":"iOS","os_version":"14.2","os_build":"18B92",
    "managed":true,"supervised":true,"shared":"false","device_ownership_level":"Institutional",
    "last_inventory_update_utc":"2020-11-20T09:00:00.000+0000","ip_address":"10.0.1.%d"},
  "network":{"carrier":"Example","imei":"35 000000 000000 %d"},
  "applications":[{"application_name":"Notes","application_version":"1.0","identifier":"com.apple.mobilenotes"}]%s
}`, id, name, id, id, model, id, id, security)
}

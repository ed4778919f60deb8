// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/models"
)

// TaskResult is what a task reports back to the run.
type TaskResult struct {
	Outcome Outcome
	Err     error
}

// taskFunc reads the run's record and snapshot and writes into cs.
type taskFunc func(ctx context.Context, r *run, cs *Changeset) TaskResult

func ok() TaskResult              { return TaskResult{Outcome: OutcomeOK} }
func skipped() TaskResult         { return TaskResult{Outcome: OutcomeSkipped} }
func deferred() TaskResult        { return TaskResult{Outcome: OutcomeDeferred} }
func failed(err error) TaskResult { return TaskResult{Outcome: OutcomeError, Err: err} }

// commonTasks are shared by every category; TaskOther comes from the
// descriptor.
var commonTasks = map[Task]taskFunc{
	TaskGeneral:             syncGeneral,
	TaskOS:                  syncOS,
	TaskSoftware:            syncSoftware,
	TaskUser:                syncUser,
	TaskPurchasing:          syncPurchasing,
	TaskExtensionAttributes: syncExtensionAttributes,
	TaskSecurity:            syncSecurity,
	TaskNetwork:             syncNetwork,
	TaskDeviceLink:          syncDeviceLink,
}

func taskFor(d *descriptor, task Task) taskFunc {
	if task == TaskOther {
		return d.other
	}
	return commonTasks[task]
}

// manufacturer is the only vendor Jamf manages.
const manufacturer = "Apple"

// Tasks read the record through jamf.FieldReader: an absent entry leaves the
// local value alone, a mistyped one fails the task.

func syncGeneral(_ context.Context, r *run, cs *Changeset) TaskResult {
	p := r.desc.paths
	gen, err := r.record.Object("general")
	if err != nil {
		return failed(err)
	}
	if gen == nil {
		return skipped()
	}

	f := r.record.Strict()
	name, _ := f.String(p.name)
	serial, hasSerial := f.String(p.serial)
	assetTag, hasAssetTag := f.String(p.assetTag)
	model, _ := f.String(p.model)
	udid, _ := f.String(p.udid)
	if err := f.Err(); err != nil {
		return failed(err)
	}

	if name != "" {
		cs.SetItem("name", name)
	}
	if hasSerial {
		cs.SetItem("serial", serial)
	}
	if hasAssetTag {
		cs.SetItem("otherserial", assetTag)
	}
	cs.SetItem("manufacturer", manufacturer)
	if model != "" {
		cs.SetItem("model", model)
	}

	if udid != "" {
		if hasNativeUUID(r.item.Itemtype) {
			cs.SetItem("uuid", udid)
		} else {
			cs.SetExtra("uuid", udid)
		}
	}
	return ok()
}

func syncOS(_ context.Context, r *run, cs *Changeset) TaskResult {
	p := r.desc.paths
	sec, err := r.record.Object(p.osSection)
	if err != nil {
		return failed(err)
	}
	if sec == nil {
		return skipped()
	}

	f := r.record.Strict()
	version, _ := f.String(p.osVersion)
	name, _ := f.String(p.osName)
	build, hasBuild := f.String(p.osBuild)
	if err := f.Err(); err != nil {
		return failed(err)
	}
	if version == "" {
		return skipped()
	}

	if name == "" && r.desc.category == models.CategoryComputer {
		name = "macOS"
	}
	if name != "" {
		cs.SetItem("os_name", name)
	}
	cs.SetItem("os_version", version)
	if hasBuild {
		cs.SetItem("os_build", build)
	}
	return ok()
}

// softwareEntry is one installed application in the "software" field.
type softwareEntry struct {
	Name       string `json:"name"`
	Version    string `json:"version,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

func syncSoftware(_ context.Context, r *run, cs *Changeset) TaskResult {
	p := r.desc.paths
	apps, present, err := r.record.List(p.software)
	if err != nil {
		return failed(err)
	}
	if !present {
		return skipped()
	}

	entries := make([]softwareEntry, 0, len(apps))
	for i, app := range apps {
		f := app.Strict()
		name, _ := f.String(p.softwareName)
		version, _ := f.String(p.softwareVersion)
		identifier, _ := f.String(p.softwareID)
		if err := f.Err(); err != nil {
			return failed(fmt.Errorf("%s[%d]: %w", p.software, i, err))
		}
		if name == "" {
			continue
		}
		entries = append(entries, softwareEntry{Name: name, Version: version, Identifier: identifier})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Version < entries[j].Version
	})

	blob, err := json.Marshal(entries)
	if err != nil {
		return failed(fmt.Errorf("encode software: %w", err))
	}
	cs.SetExtra("software", string(blob))
	return ok()
}

func syncUser(ctx context.Context, r *run, cs *Changeset) TaskResult {
	loc, err := r.record.Object("location")
	if err != nil {
		return failed(err)
	}
	if loc == nil {
		return skipped()
	}

	f := loc.Strict()
	username, hasUsername := f.String("username")
	email, _ := f.String("email_address")
	realname, _ := f.String("realname")
	phone, hasPhone := f.String("phone")
	if phone == "" {
		if alt, ok := f.String("phone_number"); ok {
			phone, hasPhone = alt, true
		}
	}
	if err := f.Err(); err != nil {
		return failed(err)
	}
	if username == "" && email == "" && realname == "" {
		return skipped()
	}

	if hasUsername {
		cs.SetItem("contact", username)
	}
	if hasPhone {
		cs.SetItem("contact_num", phone)
	}

	user, err := r.store.FindUser(ctx, username, email)
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		// Assignment is left alone; the user may not be provisioned yet.
	case err != nil:
		return failed(err)
	default:
		cs.SetItem("users_id", user.ID)
	}
	return ok()
}

// purchaseInfo is the "purchasing" auxiliary field.
type purchaseInfo struct {
	IsPurchased     bool    `json:"is_purchased"`
	IsLeased        bool    `json:"is_leased"`
	PONumber        string  `json:"po_number,omitempty"`
	PODate          string  `json:"po_date,omitempty"`
	Vendor          string  `json:"vendor,omitempty"`
	Price           string  `json:"purchase_price,omitempty"`
	WarrantyExpires string  `json:"warranty_expires,omitempty"`
	LeaseExpires    string  `json:"lease_expires,omitempty"`
	AppleCareID     string  `json:"applecare_id,omitempty"`
	LifeExpectancy  float64 `json:"life_expectancy,omitempty"`
}

func syncPurchasing(_ context.Context, r *run, cs *Changeset) TaskResult {
	sec, err := r.record.Object("purchasing")
	if err != nil {
		return failed(err)
	}
	if sec == nil {
		return skipped()
	}

	f := sec.Strict()
	info := purchaseInfo{
		IsPurchased:     f.Bool("is_purchased"),
		IsLeased:        f.Bool("is_leased"),
		PODate:          formatDate(f, "po_date_utc"),
		WarrantyExpires: formatDate(f, "warranty_expires_utc"),
		LeaseExpires:    formatDate(f, "lease_expires_utc"),
		LifeExpectancy:  f.Float("life_expectancy"),
	}
	info.PONumber, _ = f.String("po_number")
	info.Vendor, _ = f.String("vendor")
	info.Price, _ = f.String("purchase_price")
	info.AppleCareID, _ = f.String("applecare_id")
	if err := f.Err(); err != nil {
		return failed(err)
	}

	blob, err := json.Marshal(info)
	if err != nil {
		return failed(fmt.Errorf("encode purchasing: %w", err))
	}
	cs.SetExtra("purchasing", string(blob))
	return ok()
}

func formatDate(f *jamf.FieldReader, path string) string {
	t := f.Time(path)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// syncExtensionAttributes writes values straight through the run's store:
// they are keyed by item and definition, not by link, but only linked items
// carry them. A definition missing locally is created from the record.
func syncExtensionAttributes(ctx context.Context, r *run, _ *Changeset) TaskResult {
	eas, present, err := r.record.List("extension_attributes")
	if err != nil {
		return failed(err)
	}
	if !present {
		return skipped()
	}
	if r.link == nil {
		return deferred()
	}

	for i, ea := range eas {
		f := ea.Strict()
		jamfID := f.Int("id")
		name, _ := f.String("name")
		dataType, _ := f.String("type")
		if err := f.Err(); err != nil {
			return failed(fmt.Errorf("extension_attributes[%d]: %w", i, err))
		}
		if jamfID == 0 {
			continue
		}
		value, err := extensionAttributeValue(ea)
		if err != nil {
			return failed(fmt.Errorf("extension_attributes[%d]: %w", i, err))
		}

		var defID int64
		def, err := r.store.GetExtensionAttribute(ctx, r.desc.category, jamfID)
		switch {
		case errors.Is(err, database.ErrExtensionAttributeNotFound):
			defID, err = r.store.UpsertExtensionAttribute(ctx, &models.ExtensionAttribute{
				Category: r.desc.category,
				JamfID:   jamfID,
				Itemtype: r.desc.definitionItemtype,
				Name:     name,
				DataType: dataType,
			})
			if err != nil {
				return failed(err)
			}
		case err != nil:
			return failed(err)
		default:
			defID = def.ID
		}

		err = r.store.UpsertExtensionAttributeValue(ctx, &models.ExtensionAttributeValue{
			Itemtype:     r.item.Itemtype,
			ItemsID:      r.item.ID,
			DefinitionID: defID,
			Value:        value,
		})
		if err != nil {
			return failed(err)
		}
	}
	return ok()
}

// extensionAttributeValue flattens multi-value attributes into one line.
func extensionAttributeValue(ea jamf.Record) (string, error) {
	if v, ok := ea["value"].([]interface{}); ok {
		parts := make([]string, 0, len(v))
		for i, p := range v {
			switch p.(type) {
			case string, float64, bool:
				parts = append(parts, fmt.Sprint(p))
			case nil:
			default:
				return "", &jamf.MalformedError{Path: fmt.Sprintf("value[%d]", i), Want: "scalar", Got: fmt.Sprintf("%T", p)}
			}
		}
		return strings.Join(parts, ", "), nil
	}
	f := ea.Strict()
	value, _ := f.String("value")
	return value, f.Err()
}

func syncSecurity(_ context.Context, r *run, cs *Changeset) TaskResult {
	sec, err := r.record.Object("security")
	if err != nil {
		return failed(err)
	}
	if sec == nil {
		return skipped()
	}

	f := sec.Strict()
	if path := r.desc.paths.activationLock; f.Has(path) {
		cs.SetLink("activation_lock_enabled", f.Bool(path))
	}
	if f.Has("lost_mode_enabled") {
		message, _ := f.String("lost_mode_message")
		phone, _ := f.String("lost_mode_phone")
		cs.SetLink("lost_mode_enabled", f.Bool("lost_mode_enabled"))
		cs.SetLink("lost_mode_enforced", f.Bool("lost_mode_enforced"))
		cs.SetLink("lost_mode_enable_issued", f.TimePtr("lost_mode_enable_issued_utc"))
		cs.SetLink("lost_mode_message", message)
		cs.SetLink("lost_mode_phone", phone)
		cs.SetLink("lost_location_latitude", f.Float("lost_location_latitude"))
		cs.SetLink("lost_location_longitude", f.Float("lost_location_longitude"))
		cs.SetLink("lost_location_altitude", f.Float("lost_location_altitude"))
		cs.SetLink("lost_location_speed", f.Float("lost_location_speed"))
		cs.SetLink("lost_location_date", f.TimePtr("lost_location_utc"))
	}
	if err := f.Err(); err != nil {
		return failed(err)
	}

	blob, err := json.Marshal(sec)
	if err != nil {
		return failed(fmt.Errorf("encode security: %w", err))
	}
	cs.SetExtra("security", string(blob))
	return ok()
}

// syncNetwork covers network identity and, when enabled, hardware
// components.
func syncNetwork(_ context.Context, r *run, cs *Changeset) TaskResult {
	p := r.desc.paths
	f := r.record.Strict()

	network := make(map[string]string)
	for _, path := range p.network {
		if v, _ := f.String(path); v != "" {
			network[lastSegment(path)] = v
		}
	}
	if p.netSection != "" {
		sec, err := r.record.Object(p.netSection)
		if err != nil {
			return failed(err)
		}
		sf := sec.Strict()
		for k := range sec {
			if v, _ := sf.String(k); v != "" {
				network[k] = v
			}
		}
		if err := sf.Err(); err != nil {
			return failed(fmt.Errorf("%s: %w", p.netSection, err))
		}
	}

	components := make(map[string]interface{})
	if r.engine.cfg.Tasks.Components {
		for _, path := range p.components {
			if v, _ := f.String(path); v != "" {
				components[lastSegment(path)] = v
			}
		}
		if p.storage != "" {
			disks, err := storageDisks(r.record, p.storage)
			if err != nil {
				return failed(err)
			}
			if len(disks) > 0 {
				components["storage"] = disks
			}
		}
	}
	if err := f.Err(); err != nil {
		return failed(err)
	}

	if len(network) == 0 && len(components) == 0 {
		return skipped()
	}
	if len(network) > 0 {
		blob, err := json.Marshal(network)
		if err != nil {
			return failed(fmt.Errorf("encode network: %w", err))
		}
		cs.SetExtra("network", string(blob))
	}
	if len(components) > 0 {
		blob, err := json.Marshal(components)
		if err != nil {
			return failed(fmt.Errorf("encode components: %w", err))
		}
		cs.SetExtra("components", string(blob))
	}
	return ok()
}

// storageDisks reads the disk list; Jamf nests each disk under "device" on
// some versions.
func storageDisks(rec jamf.Record, path string) ([]map[string]string, error) {
	list, _, err := rec.List(path)
	if err != nil {
		return nil, err
	}
	var disks []map[string]string
	for i, d := range list {
		disk, err := d.Object("device")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		if disk == nil {
			disk = d
		}
		f := disk.Strict()
		name, _ := f.String("disk")
		model, _ := f.String("model")
		size, _ := f.String("drive_capacity_mb")
		if err := f.Err(); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		disks = append(disks, map[string]string{"disk": name, "model": model, "size_mb": size})
	}
	return disks, nil
}

func syncMobileDeviceOther(_ context.Context, r *run, cs *Changeset) TaskResult {
	gen, err := r.record.Object("general")
	if err != nil {
		return failed(err)
	}
	if gen == nil {
		return skipped()
	}

	f := gen.Strict()
	if f.Has("shared") {
		cs.SetLink("shared", f.Bool("shared"))
	}
	ownership, _ := f.String("device_ownership_level")
	phone, _ := f.String("phone_number")
	if err := f.Err(); err != nil {
		return failed(err)
	}
	if ownership != "" {
		cs.SetExtra("ownership", ownership)
	}
	if phone != "" {
		cs.SetExtra("phone_number", phone)
	}
	return ok()
}

func syncDeviceLink(_ context.Context, r *run, cs *Changeset) TaskResult {
	p := r.desc.paths
	gen, err := r.record.Object("general")
	if err != nil {
		return failed(err)
	}
	if gen == nil {
		return skipped()
	}

	f := r.record.Strict()
	if udid, _ := f.String(p.udid); udid != "" {
		cs.SetLink("udid", udid)
	}
	for column, path := range map[string]string{
		"last_inventory": p.lastInventory,
		"entry_date":     p.entryDate,
		"enroll_date":    p.enrollDate,
	} {
		if f.Has(path) {
			cs.SetLink(column, f.TimePtr(path))
		}
	}
	for column, path := range map[string]string{
		"managed":    p.managed,
		"supervised": p.supervised,
	} {
		if f.Has(path) {
			cs.SetLink(column, f.Bool(path))
		}
	}
	if err := f.Err(); err != nil {
		return failed(err)
	}
	return ok()
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

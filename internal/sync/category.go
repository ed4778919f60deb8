// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
category.go - Remote Category Descriptors

Computer and MobileDevice records carry the same information under different
paths of the Classic API payload. A descriptor maps each logical field to its
path so tasks stay category agnostic.

Computer record (abridged):

	general.{name,udid,serial_number,asset_tag,report_date_utc,
	         remote_management.managed,supervised,initial_entry_date_utc,
	         last_enrolled_date_utc,ip_address,mac_address,alt_mac_address}
	hardware.{model,model_identifier,os_name,os_version,os_build,...}
	software.applications[], location, purchasing, extension_attributes[]

Mobile device record (abridged):

	general.{name,udid,serial_number,asset_tag,last_inventory_update_utc,
	         managed,supervised,shared,model,model_identifier,os_type,
	         os_version,os_build,ip_address,wifi_mac_address,...}
	network.{carrier,imei,iccid,phone_number,...}
	applications[], location, purchasing, security, extension_attributes[]
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/models"
	"github.com/tomtom215/jamfsync/internal/rules"
)

// fieldPaths are dotted paths into a Classic API record.
type fieldPaths struct {
	name            string
	udid            string
	serial          string
	assetTag        string
	lastInventory   string
	managed         string
	supervised      string
	entryDate       string
	enrollDate      string
	model           string
	modelIdentifier string

	osSection string
	osName    string
	osVersion string
	osBuild   string

	software        string // list of applications
	softwareName    string
	softwareVersion string
	softwareID      string

	activationLock string // inside the security section

	network    []string // scalar network fields
	netSection string   // optional nested network section
	components []string // scalar hardware fields
	storage    string   // optional list of disks
}

// descriptor parameterizes the engine for one remote category.
type descriptor struct {
	category string

	// itemtypes lists the local types a device of this category may be
	// imported as.
	itemtypes []string

	// definitionItemtype scopes the category's extension attribute
	// definitions.
	definitionItemtype string

	paths fieldPaths

	// other is the category specific task; nil means NOT_APPLICABLE.
	other taskFunc
}

var descriptors = map[string]*descriptor{
	models.CategoryComputer: {
		category:           models.CategoryComputer,
		itemtypes:          []string{models.ItemtypeComputer},
		definitionItemtype: models.ItemtypeComputer,
		paths: fieldPaths{
			name:            "general.name",
			udid:            "general.udid",
			serial:          "general.serial_number",
			assetTag:        "general.asset_tag",
			lastInventory:   "general.report_date_utc",
			managed:         "general.remote_management.managed",
			supervised:      "general.supervised",
			entryDate:       "general.initial_entry_date_utc",
			enrollDate:      "general.last_enrolled_date_utc",
			model:           "hardware.model",
			modelIdentifier: "hardware.model_identifier",

			osSection: "hardware",
			osName:    "hardware.os_name",
			osVersion: "hardware.os_version",
			osBuild:   "hardware.os_build",

			software:        "software.applications",
			softwareName:    "name",
			softwareVersion: "version",
			softwareID:      "path",

			activationLock: "activation_lock",

			network: []string{"general.ip_address", "general.last_reported_ip", "general.mac_address", "general.alt_mac_address"},
			components: []string{
				"hardware.processor_type", "hardware.processor_speed_mhz", "hardware.number_processors",
				"hardware.number_cores", "hardware.total_ram_mb", "hardware.battery_capacity",
			},
			storage: "hardware.storage",
		},
	},
	models.CategoryMobileDevice: {
		category:           models.CategoryMobileDevice,
		itemtypes:          []string{models.ItemtypeComputer, models.ItemtypePhone},
		definitionItemtype: models.ItemtypePhone,
		paths: fieldPaths{
			name:            "general.name",
			udid:            "general.udid",
			serial:          "general.serial_number",
			assetTag:        "general.asset_tag",
			lastInventory:   "general.last_inventory_update_utc",
			managed:         "general.managed",
			supervised:      "general.supervised",
			entryDate:       "general.initial_entry_date_utc",
			enrollDate:      "general.last_enrollment_utc",
			model:           "general.model",
			modelIdentifier: "general.model_identifier",

			osSection: "general",
			osName:    "general.os_type",
			osVersion: "general.os_version",
			osBuild:   "general.os_build",

			software:        "applications",
			softwareName:    "application_name",
			softwareVersion: "application_version",
			softwareID:      "identifier",

			activationLock: "activation_lock_enabled",

			network:    []string{"general.ip_address", "general.wifi_mac_address", "general.bluetooth_mac_address"},
			netSection: "network",
			components: []string{
				"general.capacity_mb", "general.available_mb", "general.percentage_used", "general.battery_level",
			},
		},
		other: syncMobileDeviceOther,
	},
}

func descriptorFor(category string) (*descriptor, error) {
	d, ok := descriptors[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return d, nil
}

// supports reports whether devices of d may be imported as itemtype.
func (d *descriptor) supports(itemtype string) bool {
	for _, t := range d.itemtypes {
		if t == itemtype {
			return true
		}
	}
	return false
}

// ruleInput builds the import rule input from a record.
func (d *descriptor) ruleInput(rec jamf.Record, itemtype string) rules.Fields {
	in := rules.Fields{
		rules.FieldName:       rec.String(d.paths.name),
		rules.FieldItemtype:   itemtype,
		rules.FieldManaged:    fmt.Sprint(rec.Bool(d.paths.managed)),
		rules.FieldSupervised: fmt.Sprint(rec.Bool(d.paths.supervised)),
	}
	if t := rec.Time(d.paths.lastInventory); !t.IsZero() {
		in[rules.FieldLastInventory] = t.Format(time.RFC3339)
	} else {
		in[rules.FieldLastInventory] = ""
	}
	return in
}

// GuessItemtype picks the local item type for a discovered device from its
// model identifier. Phones become Phone; tablets, Apple TVs and anything
// unrecognized become Computer.
func GuessItemtype(category, modelIdentifier string) string {
	if category == models.CategoryMobileDevice && strings.Contains(modelIdentifier, "iPhone") {
		return models.ItemtypePhone
	}
	return models.ItemtypeComputer
}

// hasNativeUUID reports whether the local item type stores the UDID in its
// uuid column; other types keep it in the "uuid" auxiliary field.
func hasNativeUUID(itemtype string) bool {
	return itemtype == models.ItemtypeComputer
}

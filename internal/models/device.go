// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package models

import "time"

// Local item types.
const (
	ItemtypeComputer = "Computer"
	ItemtypePhone    = "Phone"
)

// Remote device categories.
const (
	CategoryComputer     = "Computer"
	CategoryMobileDevice = "MobileDevice"
)

// Item is a local asset record (glpi_items).
type Item struct {
	ID           int64     `json:"id"`
	Itemtype     string    `json:"itemtype"`
	Name         string    `json:"name"`
	Serial       string    `json:"serial"`
	OtherSerial  string    `json:"otherserial"`
	UUID         string    `json:"uuid,omitempty"` // empty for Phone; see the uuid extra field
	Contact      string    `json:"contact"`
	ContactNum   string    `json:"contact_num"`
	UsersID      int64     `json:"users_id"`
	Comment      string    `json:"comment"`
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	OSName       string    `json:"os_name"`
	OSVersion    string    `json:"os_version"`
	OSBuild      string    `json:"os_build"`
	IsDynamic    bool      `json:"is_dynamic"`
	IsDeleted    bool      `json:"is_deleted"`
	DateCreation time.Time `json:"date_creation"`
	DateMod      time.Time `json:"date_mod"`
}

// User is a local user account (glpi_users).
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Realname string `json:"realname"`
	Email    string `json:"email"`
}

// DeviceLink binds one local item to one remote Jamf device (jamf_devices).
// Itemtype, ItemsID, Category and JamfID are fixed at creation; everything
// else is bookkeeping refreshed by sync.
type DeviceLink struct {
	ID       int64  `json:"id"`
	Itemtype string `json:"itemtype"`
	ItemsID  int64  `json:"items_id"`
	Category string `json:"category"`
	JamfID   int64  `json:"jamf_id"`
	UDID     string `json:"udid"`

	LastInventory *time.Time `json:"last_inventory,omitempty"`
	EntryDate     *time.Time `json:"entry_date,omitempty"`
	EnrollDate    *time.Time `json:"enroll_date,omitempty"`
	ImportDate    *time.Time `json:"import_date,omitempty"`
	SyncDate      *time.Time `json:"sync_date,omitempty"`

	Managed               bool `json:"managed"`
	Supervised            bool `json:"supervised"`
	Shared                bool `json:"shared"`
	ActivationLockEnabled bool `json:"activation_lock_enabled"`

	LostModeEnabled      bool       `json:"lost_mode_enabled"`
	LostModeEnforced     bool       `json:"lost_mode_enforced"`
	LostModeEnableIssued *time.Time `json:"lost_mode_enable_issued,omitempty"`
	LostModeMessage      string     `json:"lost_mode_message,omitempty"`
	LostModePhone        string     `json:"lost_mode_phone,omitempty"`

	LostLocationLatitude  float64    `json:"lost_location_latitude,omitempty"`
	LostLocationLongitude float64    `json:"lost_location_longitude,omitempty"`
	LostLocationAltitude  float64    `json:"lost_location_altitude,omitempty"`
	LostLocationSpeed     float64    `json:"lost_location_speed,omitempty"`
	LostLocationDate      *time.Time `json:"lost_location_date,omitempty"`
}

// PendingImport is a discovered remote device awaiting an import decision
// (jamf_imports).
type PendingImport struct {
	Category        string    `json:"category"`
	JamfID          int64     `json:"jamf_id"`
	Name            string    `json:"name"`
	UDID            string    `json:"udid"`
	Serial          string    `json:"serial"`
	ModelIdentifier string    `json:"model_identifier"`
	Itemtype        string    `json:"itemtype"`
	DateDiscover    time.Time `json:"date_discover"`
}

// ExtensionAttribute is a mirrored Jamf extension attribute definition
// (jamf_extensionattributes).
type ExtensionAttribute struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	JamfID      int64  `json:"jamf_id"`
	Itemtype    string `json:"itemtype"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DataType    string `json:"data_type"`
}

// ExtensionAttributeValue is one item's value for a definition
// (jamf_items_extensionattributes).
type ExtensionAttributeValue struct {
	Itemtype     string `json:"itemtype"`
	ItemsID      int64  `json:"items_id"`
	DefinitionID int64  `json:"definition_id"`
	Name         string `json:"name,omitempty"`
	Value        string `json:"value"`
}

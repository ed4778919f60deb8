// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package models holds the row types shared by the database, sync engine and
// API layers, plus the JSON response envelope used by the trigger API.
package models

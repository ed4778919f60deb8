// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package events publishes device lifecycle events to NATS JetStream.
//
// Every change the sync engine makes to the device registry is announced as
// a DeviceEvent: a device queued by discovery, imported, synced (or failed
// to), linked by a merge, unlinked, or deleted with its local item.
// Downstream consumers (helpdesk automation, reporting) subscribe to the
// stream instead of polling the trigger API.
//
// # Subjects
//
// Events go to <prefix>.<category>.<type>, for example
//
//	jamfsync.devices.computer.synced
//	jamfsync.devices.mobiledevice.queued
//	jamfsync.devices.item.deleted
//
// where "item" stands for events with no Jamf side. One stream (default
// JAMFSYNC_DEVICES) captures <prefix>.>.
//
// # Deployment
//
// Start connects to an external NATS server, or runs an embedded one with
// file-backed JetStream storage for single-host installs. The stream is
// created or updated on startup. Publishing goes through Watermill with a
// circuit breaker in front; a failed publish is logged by the caller and
// never fails a sync.
//
// Messages carry the event id as Nats-Msg-Id, so JetStream drops
// duplicates inside the stream's duplicate window.
package events

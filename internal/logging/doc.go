// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

// Package logging provides the zerolog-backed structured logger used by every
// jamfsync component.
//
// The package keeps one global logger configured at startup by Init. Sync runs,
// discovery passes and API requests attach a correlation id to their context;
// Ctx(ctx) returns a logger carrying that id plus any device fields attached
// with ContextWithDevice, so every line written during one run can be grepped
// together.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	ctx = logging.ContextWithDevice(ctx, "MobileDevice", 42)
//	logging.Ctx(ctx).Info().Str("task", "security").Msg("Task skipped")
//
// The slog adapter lets the supervision tree (sutureslog) log through the same
// zerolog output.
package logging

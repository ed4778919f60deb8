// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package services adapts jamfsync components to suture.Service.

  - JobService runs one engine pass (discover or sync-due) for one category
    on a fixed interval.
  - HTTPServerService runs the trigger API's *http.Server and shuts it down
    when the tree stops.
  - WebSocketHubService runs the hub that streams device events to
    WebSocket clients.

All return ctx.Err() when canceled so suture does not count a clean stop as
a failure. A failed job pass is logged and the service keeps ticking; only a
crashed HTTP listener is reported to the supervisor for restart.
*/
package services

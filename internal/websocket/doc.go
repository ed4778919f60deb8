// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package websocket streams device lifecycle events to connected clients.

The Hub is an event sink for the sync engine: every device event the engine
publishes to NATS is also broadcast to WebSocket clients, so operators can
watch imports and syncs happen without polling.

# Protocol

Clients connect to GET /api/v1/events/ws, optionally with ?category=Computer
(repeatable) to receive only events of those categories. Server messages:

	{"type":"device_event","data":{"event_id":"...","type":"synced","category":"Computer",...}}
	{"type":"pong","data":null}

A client may send {"type":"ping"} at any time. The server pings every 54s
and drops clients that do not answer within 60s.

# Back-pressure

Each client has a 256 message buffer. A client whose buffer is full is
disconnected instead of slowing down the engine; Publish never blocks.

# Lifecycle

RunWithContext is run by the supervisor in the api layer. When its context
ends all clients are closed.
*/
package websocket

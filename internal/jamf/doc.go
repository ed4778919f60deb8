// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package jamf provides a client for the Jamf Pro server.

Two API surfaces are used:

  - Classic API (/JSSResource): full device records, extension attribute
    definitions, account privileges and MDM commands.
  - Jamf Pro API (/api): bearer token issuance and paginated device
    inventory listings used by discovery.

All requests share one bearer token, refreshed on demand and deduplicated
across goroutines, and one outbound rate limiter. Throttling responses are
reported as *RateLimitError so callers can retry later.

# Circuit Breaker

CircuitBreakerClient wraps Client with sony/gobreaker. Not-found responses
count as successes; only transport failures, throttling and server errors
move the breaker toward the open state.

# Records

Classic device payloads are decoded into Record, a generic map with dotted
path accessors:

	rec.String("general.name")
	rec.Time("general.last_inventory_update_utc")
	rec.Records("extension_attributes")

Absent paths yield zero values. These lenient accessors feed import rules
and device summaries.

Sync tasks read through the strict forms instead, which tell an absent entry
from a mistyped one:

	gen, err := rec.Object("general")
	apps, present, err := rec.List("software.applications")
	f := rec.Strict()
	serial, ok := f.String("general.serial_number")
	err = f.Err() // *MalformedError, matches ErrMalformed

# Commands

Each command takes a fixed set of fields (CheckCommandFields); anything else
is rejected with ErrUnsupportedField before a request body is built.
*/
package jamf

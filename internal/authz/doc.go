// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package authz authorizes trigger API requests with a Casbin RBAC policy.

Requests are mapped to (subject, object, action) triples: the subject is a
role from the authenticated caller, the object is the request path and the
action is derived from the HTTP method:

	GET, HEAD, OPTIONS  read
	POST, PUT, PATCH    write
	DELETE              delete

The built-in policy (policy.csv) defines three roles that inherit upward:

	viewer    read links, extension attributes, pending devices, the event feed
	operator  viewer + merge, unmerge, sync, discover, import, dismiss, commands
	admin     everything under /api/v1, including item deletion and the audit log

AUTHZ_POLICY_PATH replaces the built-in policy with a CSV file in the same
format; the file is re-read every 30 seconds. Decisions are cached for
AUTHZ_DECISION_CACHE_TTL.

Authorization only runs when AUTH_MODE is not proxy. In proxy mode the
fronting proxy is trusted to have authorized the request.
*/
package authz

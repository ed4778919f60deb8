// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package api serves the jamfsync trigger API.

The API exposes the engine's on-demand operations to GLPI and operators. Every
response uses the models.APIResponse envelope.

# Routes

	GET    /healthz/live                              liveness
	GET    /healthz                                   database and Jamf reachability
	GET    /metrics                                   Prometheus exposition

	GET    /api/v1/items/{itemtype}/{id}/link         device link of an item
	DELETE /api/v1/items/{itemtype}/{id}/link         unmerge
	POST   /api/v1/items/{itemtype}/{id}/merge        link to {category, jamf_id} and sync
	POST   /api/v1/items/{itemtype}/{id}/sync         sync one item now
	GET    /api/v1/items/{itemtype}/{id}/extension-attributes
	DELETE /api/v1/items/{itemtype}/{id}              delete item and its link

	POST   /api/v1/categories/{category}/discover
	POST   /api/v1/categories/{category}/sync         sync every due device
	POST   /api/v1/categories/{category}/extension-attributes/sync

	GET    /api/v1/pending?category=
	POST   /api/v1/pending/{category}/{jamfID}/import
	DELETE /api/v1/pending/{category}/{jamfID}

	POST   /api/v1/commands                           needs an authenticated user
	GET    /api/v1/audit                              audit trail of the calls above
	GET    /api/v1/backups                            archives of the local store
	POST   /api/v1/backups                            back up now
	POST   /api/v1/backups/{id}/verify                check an archive's checksums
	GET    /api/v1/events/ws?category=                live device events over WebSocket

Authentication follows AUTH_MODE. In the default proxy mode it is left to the
reverse proxy in front of the API, which sets X-Remote-User to the Jamf
account a command is sent on behalf of; requests without the header pass
through anonymously but cannot send commands. The jwt, basic and multi modes
require credentials on every /api/v1 request and authorize the caller's
roles against the Casbin policy of package authz, answering 401 or 403.

Merges, unmerges, deletes, imports, dismissals, commands, manual backups and
authorization denials are recorded to the audit trail with the authenticated user as the
actor.

The event stream accepts connections without an Origin header, which is what
non-browser clients send. Browser connections must come from one of the
configured CORS origins.
*/
package api

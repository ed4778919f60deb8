// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package auth authenticates trigger API callers.

# Modes

	proxy   the reverse proxy authenticates; X-Remote-User names the caller
	        and X-Remote-Groups lists its roles. Requests without the header
	        pass through anonymously.
	jwt     HS256 bearer token (Authorization header or "token" cookie)
	basic   one local account, password kept as a bcrypt hash
	multi   jwt, then basic

Every mode produces a *Subject, stored in the request context with
NewContext. The subject's Username is the Jamf account MDM commands are sent
for, and the actor recorded in the audit trail.

# Errors

Authenticators return ErrNoCredentials when the request carries nothing for
them, which lets MultiAuthenticator try the next one. ErrInvalidCredentials
and ErrExpiredCredentials stop the chain.
*/
package auth

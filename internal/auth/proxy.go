// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package auth

import (
	"context"
	"net/http"
	"strings"
)

// Proxy headers.
const (
	RemoteUserHeader   = "X-Remote-User"
	RemoteGroupsHeader = "X-Remote-Groups"
)

// ProxyAuthenticator trusts the identity headers set by the reverse proxy.
// Groups that are not known roles are ignored.
type ProxyAuthenticator struct{}

// Authenticate implements Authenticator.
func (ProxyAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Subject, error) {
	user := strings.TrimSpace(r.Header.Get(RemoteUserHeader))
	if user == "" {
		return nil, ErrNoCredentials
	}
	var roles []string
	for _, g := range strings.Split(r.Header.Get(RemoteGroupsHeader), ",") {
		if g = strings.TrimSpace(g); IsValidRole(g) {
			roles = append(roles, g)
		}
	}
	return &Subject{ID: user, Username: user, Roles: roles, Method: ModeProxy}, nil
}

// Name implements Authenticator.
func (ProxyAuthenticator) Name() string { return string(ModeProxy) }

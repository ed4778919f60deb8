// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// PrivilegeSetAdministrator grants every privilege.
const PrivilegeSetAdministrator = "Administrator"

// Privileges is the privilege set of a Jamf user account.
type Privileges struct {
	Username     string   `json:"name"`
	PrivilegeSet string   `json:"privilege_set"`
	JSSObjects   []string `json:"jss_objects"`
	JSSSettings  []string `json:"jss_settings"`
	JSSActions   []string `json:"jss_actions"`
}

// Has reports whether the account holds privilege.
func (p *Privileges) Has(privilege string) bool {
	if p == nil {
		return false
	}
	if p.PrivilegeSet == PrivilegeSetAdministrator {
		return true
	}
	for _, set := range [][]string{p.JSSActions, p.JSSObjects, p.JSSSettings} {
		for _, have := range set {
			if strings.EqualFold(have, privilege) {
				return true
			}
		}
	}
	return false
}

// GetAccountPrivileges fetches the privileges of a Jamf user account.
func (c *Client) GetAccountPrivileges(ctx context.Context, username string) (*Privileges, error) {
	var payload struct {
		Account struct {
			Name         string `json:"name"`
			PrivilegeSet string `json:"privilege_set"`
			Privileges   struct {
				JSSObjects  []string `json:"jss_objects"`
				JSSSettings []string `json:"jss_settings"`
				JSSActions  []string `json:"jss_actions"`
			} `json:"privileges"`
		} `json:"account"`
	}

	path := "/JSSResource/accounts/username/" + url.PathEscape(username)
	if err := c.doJSON(ctx, path, "/JSSResource/accounts/username/{name}", nil, &payload); err != nil {
		return nil, fmt.Errorf("get privileges for %s: %w", username, err)
	}

	a := payload.Account
	return &Privileges{
		Username:     a.Name,
		PrivilegeSet: a.PrivilegeSet,
		JSSObjects:   a.Privileges.JSSObjects,
		JSSSettings:  a.Privileges.JSSSettings,
		JSSActions:   a.Privileges.JSSActions,
	}, nil
}

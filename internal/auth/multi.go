// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package auth

import (
	"context"
	"errors"
	"net/http"
)

// MultiAuthenticator tries authenticators in order until one recognizes the
// request. Invalid or expired credentials end the chain.
type MultiAuthenticator struct {
	authenticators []Authenticator
}

// NewMultiAuthenticator chains authenticators in the given order.
func NewMultiAuthenticator(authenticators ...Authenticator) *MultiAuthenticator {
	return &MultiAuthenticator{authenticators: authenticators}
}

// Authenticate implements Authenticator.
func (m *MultiAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*Subject, error) {
	for _, a := range m.authenticators {
		subject, err := a.Authenticate(ctx, r)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return subject, err
	}
	return nil, ErrNoCredentials
}

// Name implements Authenticator.
func (m *MultiAuthenticator) Name() string { return string(ModeMulti) }

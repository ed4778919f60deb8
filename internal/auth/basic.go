// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// BasicAuthenticator checks HTTP Basic credentials against one local account.
// The account gets the admin role.
type BasicAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthenticator hashes password with bcrypt and keeps only the hash.
func NewBasicAuthenticator(username, password string) (*BasicAuthenticator, error) {
	if username == "" || password == "" {
		return nil, errors.New("basic auth username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &BasicAuthenticator{username: username, passwordHash: hash}, nil
}

// Authenticate implements Authenticator.
func (a *BasicAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Subject, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrNoCredentials
	}
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passMatch := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	if !userMatch || !passMatch {
		return nil, ErrInvalidCredentials
	}
	return &Subject{
		ID:       username,
		Username: username,
		Roles:    []string{RoleAdmin},
		Method:   ModeBasic,
	}, nil
}

// Name implements Authenticator.
func (a *BasicAuthenticator) Name() string { return string(ModeBasic) }

// Challenge is the WWW-Authenticate value sent with a 401.
func (a *BasicAuthenticator) Challenge() string {
	return `Basic realm="jamfsync", charset="UTF-8"`
}

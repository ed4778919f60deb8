// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// Mode is the authentication strategy.
type Mode string

const (
	ModeProxy Mode = "proxy"
	ModeJWT   Mode = "jwt"
	ModeBasic Mode = "basic"
	ModeMulti Mode = "multi"
)

// ParseMode converts a configured mode. Empty means proxy.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeProxy:
		return ModeProxy, nil
	case ModeJWT, ModeBasic, ModeMulti:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid auth mode: %q", s)
	}
}

// Roles, lowest first.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// ValidRoles lists the roles the authorization policy knows.
var ValidRoles = []string{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}

var (
	// ErrNoCredentials means the request carries no credentials for this
	// authenticator.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials means credentials were present but wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials means the token has expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Authenticator extracts and checks credentials from a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Subject, error)
	Name() string
}

// Subject is an authenticated caller.
type Subject struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	Method   Mode     `json:"method"`
}

// HasRole reports whether the subject carries role.
func (s *Subject) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

type contextKey struct{}

// NewContext returns ctx carrying subject.
func NewContext(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, subject)
}

// FromContext returns the subject stored by NewContext, or nil.
func FromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(contextKey{}).(*Subject)
	return s
}

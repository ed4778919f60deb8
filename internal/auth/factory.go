// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package auth

import (
	"github.com/tomtom215/jamfsync/internal/config"
)

// Challenger is implemented by authenticators that answer a 401 with a
// WWW-Authenticate challenge.
type Challenger interface {
	Challenge() string
}

// Challenge returns the challenge of the first chained authenticator that
// has one.
func (m *MultiAuthenticator) Challenge() string {
	for _, a := range m.authenticators {
		if c, ok := a.(Challenger); ok {
			return c.Challenge()
		}
	}
	return ""
}

// New builds the authenticator for cfg.Mode.
func New(cfg *config.AuthConfig) (Authenticator, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeJWT:
		return newJWT(cfg)
	case ModeBasic:
		return NewBasicAuthenticator(cfg.BasicUsername, cfg.BasicPassword)
	case ModeMulti:
		jwtAuth, err := newJWT(cfg)
		if err != nil {
			return nil, err
		}
		basic, err := NewBasicAuthenticator(cfg.BasicUsername, cfg.BasicPassword)
		if err != nil {
			return nil, err
		}
		return NewMultiAuthenticator(jwtAuth, basic), nil
	default:
		return ProxyAuthenticator{}, nil
	}
}

func newJWT(cfg *config.AuthConfig) (*JWTAuthenticator, error) {
	manager, err := NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	return NewJWTAuthenticator(manager), nil
}

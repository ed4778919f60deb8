// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/jamfsync/internal/audit"
	"github.com/tomtom215/jamfsync/internal/auth"
	"github.com/tomtom215/jamfsync/internal/authz"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

// WithAuth authenticates /api/v1 requests with authn and, when enforcer is
// non-nil, authorizes them against its policy.
func (h *Handler) WithAuth(authn auth.Authenticator, enforcer *authz.Enforcer) *Handler {
	h.authn = authn
	h.enforcer = enforcer
	return h
}

// remoteUser returns the authenticated username, falling back to the proxy
// header when no authenticator is configured.
func remoteUser(r *http.Request) string {
	if s := auth.FromContext(r.Context()); s != nil {
		return s.Username
	}
	return r.Header.Get(RemoteUserHeader)
}

// authenticate resolves the caller. In proxy mode a request without
// X-Remote-User passes through anonymously; every other mode requires
// credentials.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authn == nil {
			next.ServeHTTP(w, r)
			return
		}

		method := h.authn.Name()
		subject, err := h.authn.Authenticate(r.Context(), r)
		switch {
		case err == nil:
			metrics.RecordAuthAttempt(method, "ok")
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), subject)))
			return
		case errors.Is(err, auth.ErrNoCredentials) && method == string(auth.ModeProxy):
			next.ServeHTTP(w, r)
			return
		case errors.Is(err, auth.ErrNoCredentials):
			metrics.RecordAuthAttempt(method, "missing")
		case errors.Is(err, auth.ErrExpiredCredentials):
			metrics.RecordAuthAttempt(method, "expired")
		default:
			metrics.RecordAuthAttempt(method, "invalid")
			logging.Warn().Err(err).Str("method", method).Str("remote_addr", clientIP(r)).Msg("API authentication failed")
		}

		if c, ok := h.authn.(auth.Challenger); ok && c.Challenge() != "" {
			w.Header().Set("WWW-Authenticate", c.Challenge())
		}
		respondError(w, http.StatusUnauthorized, CodeUnauthenticated, err.Error(), nil)
	})
}

// authorize checks the caller's roles against the policy for the request
// path and method.
func (h *Handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.enforcer == nil {
			next.ServeHTTP(w, r)
			return
		}
		subject := auth.FromContext(r.Context())
		if subject == nil {
			respondError(w, http.StatusUnauthorized, CodeUnauthenticated, "an authenticated user is required", nil)
			return
		}

		action := authz.ActionForMethod(r.Method)
		allowed, err := h.enforcer.EnforceWithRoles(subject.Roles, r.URL.Path, action)
		if err != nil {
			logging.Error().Err(err).Str("path", r.URL.Path).Msg("Authorization check failed")
			respondError(w, http.StatusInternalServerError, CodeInternal, "authorization check failed", nil)
			return
		}
		if !allowed {
			h.record(r, &audit.Event{Type: audit.EventTypeAccessDenied, Action: action, Description: r.URL.Path}, errAccessDenied)
			respondError(w, http.StatusForbidden, CodePermissionDenied, "insufficient permissions", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errAccessDenied = errors.New("access denied")

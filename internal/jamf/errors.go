// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound is matched by any 4xx response other than throttling and
	// authentication failures.
	ErrNotFound = errors.New("jamf: resource not found")

	// ErrRateLimited is matched by *RateLimitError.
	ErrRateLimited = errors.New("jamf: rate limited")

	// ErrUnauthorized is returned when the server rejects the credentials.
	ErrUnauthorized = errors.New("jamf: unauthorized")

	// ErrUnknownCategory is returned for a category other than Computer or
	// MobileDevice.
	ErrUnknownCategory = errors.New("jamf: unknown device category")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jamf %s %s returned status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("jamf %s %s returned status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// Is reports 4xx responses as ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound &&
		e.StatusCode >= 400 && e.StatusCode < 500 &&
		e.StatusCode != http.StatusUnauthorized && e.StatusCode != http.StatusTooManyRequests
}

// RateLimitError signals the server asked us to slow down. RetryAfter is
// zero when the server gave no hint.
type RateLimitError struct {
	Endpoint   string
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("jamf %s rate limited (status %d), retry after %s", e.Endpoint, e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("jamf %s rate limited (status %d)", e.Endpoint, e.StatusCode)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

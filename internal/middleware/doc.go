// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package middleware provides the HTTP middleware of the trigger API.

  - RequestID: honors or generates X-Request-ID and seeds the logging
    correlation id from it, so every log line of one trigger shares an id
  - PrometheusMetrics: request count, duration and in-flight gauge, labeled
    by the matched chi route pattern to keep cardinality bounded

Both are plain func(http.Handler) http.Handler and slot into chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware

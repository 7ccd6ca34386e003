// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package middleware provides HTTP middleware for the admin API.

  - RequestID: reuses or generates an X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: records request count and latency per route

Both are plain http.HandlerFunc wrappers; the api package adapts them to
chi's func(http.Handler) http.Handler form.

PrometheusMetrics labels requests with the chi route pattern
(/api/v1/subscriptions/{address}) rather than the raw path, so addresses in
URLs never become label values.
*/
package middleware

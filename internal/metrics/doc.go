// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - Ledger feed connection state, reconnects and received messages
  - Dispatcher event outcomes and in-flight deliveries
  - Per-channel delivery results and latency
  - Circuit breaker state per delivery channel
  - Subscription registry size
  - Admin API request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

All collectors are registered with the default registry through promauto at
package initialization.
*/
package metrics

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package supervisor runs the long-lived services under a suture/v4 tree.

Tree layout:

	ripplenotify (root)
	├── ingest-layer    ledger feed (websocket client or NATS source)
	├── dispatch-layer  transaction dispatcher
	└── api-layer       admin HTTP server

Each layer is its own supervisor, so a feed that keeps failing backs off
without restarting the dispatcher, and in-flight deliveries are not cut short
by an HTTP listener error. Every service implements suture.Service
(Serve(ctx) error) and fmt.Stringer.

Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from internal/logging.
*/
package supervisor

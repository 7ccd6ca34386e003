// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package main is the entry point for the Ripplenotify server.

Ripplenotify watches the validated transaction stream of a rippled server and
sends a notification to every endpoint subscribed to an affected account.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("ripplenotify")
	├── IngestSupervisor ("ingest-layer")
	│   └── Ledger feed (websocket client, or NATS source with -tags nats)
	├── DispatchSupervisor ("dispatch-layer")
	│   └── Transaction dispatcher
	└── APISupervisor ("api-layer")
	    └── HTTP Server (subscription API, health, metrics)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Store: SQLite, PostgreSQL or BadgerDB subscription storage
 4. Registry: in-memory address index primed from the store
 5. Delivery: push-service, mobile-push, mobile-push-sandbox and timeline-api
    adapters, each behind a rate limiter and circuit breaker
 6. Dispatcher and feed
 7. HTTP Server: Chi router with middleware stack

# Build Tags

	go build ./cmd/server               # websocket feed only
	go build -tags nats ./cmd/server    # adds FEED_SOURCE=nats

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the feed
disconnects and the dispatcher waits for in-flight deliveries before the store is
closed.

# Example Usage

	export PUSHOVER_ENABLED=true
	export PUSHOVER_APP_TOKEN=your-app-token
	export RIPPLE_SERVERS=wss://s1.ripple.com,wss://s2.ripple.com
	./ripplenotify
*/
package main

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package config loads and validates ripplenotify configuration.

# Configuration Sources

Configuration is layered with koanf, later layers winning:

 1. Defaults from defaultConfig()
 2. An optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/ripplenotify/config.yaml, /etc/ripplenotify/config.yml
 3. Environment variables, mapped explicitly by envTransformFunc. Unknown
    variables are ignored.

# Environment Variables

Ledger feed (FeedConfig):
  - FEED_SOURCE: websocket or nats (default: websocket)
  - RIPPLE_SERVERS: Comma-separated rippled websocket URLs
  - FEED_RECONNECT_DELAY: First reconnect delay (default: 1s)
  - FEED_MAX_RECONNECT_DELAY: Backoff cap (default: 30s)
  - FEED_PING_INTERVAL: Websocket ping period (default: 30s)
  - FEED_READ_TIMEOUT: Silence before reconnecting (default: 60s)
  - FEED_EVENT_BUFFER: Dispatcher queue size (default: 1024)

NATS source (NATSConfig, requires -tags nats):
  - NATS_URL, NATS_SUBJECT, NATS_DURABLE_NAME, NATS_QUEUE_GROUP, NATS_STREAM_NAME

Subscription store (StoreConfig):
  - STORE_DRIVER: sqlite, postgres or badger (default: sqlite)
  - STORE_PATH: Database file or directory (default: /data/ripplenotify.db)
  - STORE_DSN: PostgreSQL connection string

Dispatch and delivery (DispatchConfig, DeliveryConfig):
  - DISPATCH_WORKERS: Concurrent deliveries (default: 32)
  - DELIVERY_TIMEOUT: Per-request timeout (default: 10s)
  - DELIVERY_RATE_LIMIT, DELIVERY_RATE_BURST: Per-channel limiter
  - DELIVERY_BREAKER_FAILURES, DELIVERY_BREAKER_TIMEOUT: Per-channel breaker

Channels:
  - PUSHOVER_ENABLED, PUSHOVER_APP_TOKEN, PUSHOVER_SOUND, PUSHOVER_PRIORITY
  - APNS_ENABLED, APNS_KEY_ID, APNS_TEAM_ID, APNS_KEY_PATH, APNS_TOPIC,
    APNS_SOUND, APNS_TTL
  - TIMELINE_ENABLED, TIMELINE_CLIENT_ID, TIMELINE_CLIENT_SECRET,
    TIMELINE_REDIRECT_URL

HTTP admin server (ServerConfig):
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, CORS_ORIGINS,
    RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW

Logging (LoggingConfig):
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

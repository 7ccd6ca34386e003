// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package config

import "time"

// Feed sources.
const (
	FeedSourceWebsocket = "websocket"
	FeedSourceNATS      = "nats"
)

// Config holds all application configuration
type Config struct {
	Feed     FeedConfig     `koanf:"feed"`
	NATS     NATSConfig     `koanf:"nats"`
	Store    StoreConfig    `koanf:"store"`
	Dispatch DispatchConfig `koanf:"dispatch"`
	Delivery DeliveryConfig `koanf:"delivery"`
	Pushover PushoverConfig `koanf:"pushover"`
	APNs     APNsConfig     `koanf:"apns"`
	Timeline TimelineConfig `koanf:"timeline"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// FeedConfig selects and tunes the ledger transaction source.
type FeedConfig struct {
	// Source is websocket (direct rippled connection) or nats.
	Source string `koanf:"source"`

	// Servers are rippled websocket URLs, rotated on reconnect.
	Servers []string `koanf:"servers"`

	ReconnectDelay    time.Duration `koanf:"reconnect_delay"`
	MaxReconnectDelay time.Duration `koanf:"max_reconnect_delay"`
	PingInterval      time.Duration `koanf:"ping_interval"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`

	// EventBuffer is the capacity of the dispatcher queue.
	EventBuffer int `koanf:"event_buffer"`
}

// NATSConfig holds the JetStream source settings. Only used when
// Feed.Source is nats and the binary was built with -tags nats.
type NATSConfig struct {
	URL         string `koanf:"url"`
	Subject     string `koanf:"subject"`
	DurableName string `koanf:"durable_name"`
	QueueGroup  string `koanf:"queue_group"`
	StreamName  string `koanf:"stream_name"`
}

// StoreConfig selects the subscription store backend.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	DSN    string `koanf:"dsn"`
}

// DispatchConfig bounds delivery concurrency.
type DispatchConfig struct {
	Workers int `koanf:"workers"`
}

// DeliveryConfig applies to every channel adapter.
type DeliveryConfig struct {
	// Timeout bounds each outbound request.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is sends per second per channel; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// BreakerFailures consecutive transient failures open a channel's breaker
	// for BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// PushoverConfig configures the push-service channel.
type PushoverConfig struct {
	Enabled  bool   `koanf:"enabled"`
	AppToken string `koanf:"app_token"`
	Sound    string `koanf:"sound"`
	Priority int    `koanf:"priority"`

	// TxURLFormat is formatted with the transaction hash to link the
	// notification to an explorer. Empty disables the link.
	TxURLFormat string `koanf:"tx_url_format"`
}

// APNsConfig configures the mobile-push channels. Both the production and
// the sandbox gateway share one signing key.
type APNsConfig struct {
	Enabled bool          `koanf:"enabled"`
	KeyID   string        `koanf:"key_id"`
	TeamID  string        `koanf:"team_id"`
	KeyPath string        `koanf:"key_path"`
	Topic   string        `koanf:"topic"`
	Sound   string        `koanf:"sound"`
	TTL     time.Duration `koanf:"ttl"`
}

// TimelineConfig configures the timeline-api channel and its OAuth client.
type TimelineConfig struct {
	Enabled      bool   `koanf:"enabled"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

// ServerConfig holds the admin HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

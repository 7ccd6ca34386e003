// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ripplenotify/config.yaml",
	"/etc/ripplenotify/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			Source:            FeedSourceWebsocket,
			Servers:           []string{"wss://xrplcluster.com", "wss://s1.ripple.com", "wss://s2.ripple.com"},
			ReconnectDelay:    1 * time.Second,
			MaxReconnectDelay: 30 * time.Second,
			PingInterval:      30 * time.Second,
			ReadTimeout:       60 * time.Second,
			EventBuffer:       1024,
		},
		NATS: NATSConfig{
			URL:         "nats://127.0.0.1:4222",
			Subject:     "ledger.transactions",
			DurableName: "ripplenotify",
			QueueGroup:  "ripplenotify",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "/data/ripplenotify.db",
		},
		Dispatch: DispatchConfig{
			Workers: 32,
		},
		Delivery: DeliveryConfig{
			Timeout:         10 * time.Second,
			RateLimit:       20,
			RateBurst:       10,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Pushover: PushoverConfig{
			Enabled:     false,
			Sound:       "cashregister",
			Priority:    0,
			TxURLFormat: "https://livenet.xrpl.org/transactions/%s",
		},
		APNs: APNsConfig{
			Enabled: false,
			Sound:   "default",
			TTL:     1 * time.Hour,
		},
		Timeline: TimelineConfig{
			Enabled: false,
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"feed.servers",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Ledger feed
	"feed_source":              "feed.source",
	"ripple_servers":           "feed.servers",
	"feed_reconnect_delay":     "feed.reconnect_delay",
	"feed_max_reconnect_delay": "feed.max_reconnect_delay",
	"feed_ping_interval":       "feed.ping_interval",
	"feed_read_timeout":        "feed.read_timeout",
	"feed_event_buffer":        "feed.event_buffer",

	// NATS source
	"nats_url":          "nats.url",
	"nats_subject":      "nats.subject",
	"nats_durable_name": "nats.durable_name",
	"nats_queue_group":  "nats.queue_group",
	"nats_stream_name":  "nats.stream_name",

	// Subscription store
	"store_driver": "store.driver",
	"store_path":   "store.path",
	"store_dsn":    "store.dsn",

	// Dispatch and delivery
	"dispatch_workers":          "dispatch.workers",
	"delivery_timeout":          "delivery.timeout",
	"delivery_rate_limit":       "delivery.rate_limit",
	"delivery_rate_burst":       "delivery.rate_burst",
	"delivery_breaker_failures": "delivery.breaker_failures",
	"delivery_breaker_timeout":  "delivery.breaker_timeout",

	// push-service
	"pushover_enabled":       "pushover.enabled",
	"pushover_app_token":     "pushover.app_token",
	"pushover_sound":         "pushover.sound",
	"pushover_priority":      "pushover.priority",
	"pushover_tx_url_format": "pushover.tx_url_format",

	// mobile-push
	"apns_enabled":  "apns.enabled",
	"apns_key_id":   "apns.key_id",
	"apns_team_id":  "apns.team_id",
	"apns_key_path": "apns.key_path",
	"apns_topic":    "apns.topic",
	"apns_sound":    "apns.sound",
	"apns_ttl":      "apns.ttl",

	// timeline-api
	"timeline_enabled":       "timeline.enabled",
	"timeline_client_id":     "timeline.client_id",
	"timeline_client_secret": "timeline.client_secret",
	"timeline_redirect_url":  "timeline.redirect_url",

	// HTTP admin server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - RIPPLE_SERVERS -> feed.servers
//   - PUSHOVER_APP_TOKEN -> pushover.app_token
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never
	// pollute the config.
	return ""
}

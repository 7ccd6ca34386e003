// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package config

import (
	"fmt"
	"os"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateDelivery(); err != nil {
		return err
	}

	if err := c.validateChannels(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateFeed validates the ledger source settings
func (c *Config) validateFeed() error {
	switch c.Feed.Source {
	case FeedSourceWebsocket:
		if len(c.Feed.Servers) == 0 {
			return fmt.Errorf("RIPPLE_SERVERS must list at least one server when FEED_SOURCE=websocket")
		}
		for _, server := range c.Feed.Servers {
			if err := validateWebsocketURL(server); err != nil {
				return fmt.Errorf("RIPPLE_SERVERS entry %q is invalid: %w", server, err)
			}
		}
	case FeedSourceNATS:
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
		if c.NATS.Subject == "" {
			return fmt.Errorf("NATS_SUBJECT is required when FEED_SOURCE=nats")
		}
	default:
		return fmt.Errorf("FEED_SOURCE must be %q or %q, got %q", FeedSourceWebsocket, FeedSourceNATS, c.Feed.Source)
	}

	if c.Feed.ReconnectDelay <= 0 {
		return fmt.Errorf("FEED_RECONNECT_DELAY must be positive, got %v", c.Feed.ReconnectDelay)
	}
	if c.Feed.MaxReconnectDelay < c.Feed.ReconnectDelay {
		return fmt.Errorf("FEED_MAX_RECONNECT_DELAY (%v) must not be less than FEED_RECONNECT_DELAY (%v)",
			c.Feed.MaxReconnectDelay, c.Feed.ReconnectDelay)
	}
	if c.Feed.PingInterval <= 0 || c.Feed.ReadTimeout <= c.Feed.PingInterval {
		return fmt.Errorf("FEED_READ_TIMEOUT (%v) must exceed FEED_PING_INTERVAL (%v)",
			c.Feed.ReadTimeout, c.Feed.PingInterval)
	}
	if c.Feed.EventBuffer < 1 {
		return fmt.Errorf("FEED_EVENT_BUFFER must be at least 1, got %d", c.Feed.EventBuffer)
	}
	return nil
}

// validateStore validates the subscription store settings
func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "sqlite", "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required when STORE_DRIVER=%s", c.Store.Driver)
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("STORE_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be sqlite, postgres or badger, got %q", c.Store.Driver)
	}
	return nil
}

// validateDelivery validates dispatch and delivery tuning
func (c *Config) validateDelivery() error {
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.Dispatch.Workers)
	}
	if c.Delivery.Timeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive, got %v", c.Delivery.Timeout)
	}
	if c.Delivery.RateLimit < 0 {
		return fmt.Errorf("DELIVERY_RATE_LIMIT must not be negative, got %v", c.Delivery.RateLimit)
	}
	if c.Delivery.BreakerFailures == 0 {
		return fmt.Errorf("DELIVERY_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

// validateChannels validates each enabled channel. At least one must be enabled.
func (c *Config) validateChannels() error {
	if !c.Pushover.Enabled && !c.APNs.Enabled && !c.Timeline.Enabled {
		return fmt.Errorf("no delivery channel enabled: set PUSHOVER_ENABLED, APNS_ENABLED or TIMELINE_ENABLED")
	}

	if c.Pushover.Enabled {
		if c.Pushover.AppToken == "" {
			return fmt.Errorf("PUSHOVER_APP_TOKEN is required when PUSHOVER_ENABLED=true")
		}
		if c.Pushover.Priority < -2 || c.Pushover.Priority > 1 {
			return fmt.Errorf("PUSHOVER_PRIORITY must be between -2 and 1, got %d", c.Pushover.Priority)
		}
		if c.Pushover.TxURLFormat != "" && strings.Count(c.Pushover.TxURLFormat, "%s") != 1 {
			return fmt.Errorf("PUSHOVER_TX_URL_FORMAT must contain exactly one %%s")
		}
	}

	if c.APNs.Enabled {
		missing := make([]string, 0, 4)
		if c.APNs.KeyID == "" {
			missing = append(missing, "APNS_KEY_ID")
		}
		if c.APNs.TeamID == "" {
			missing = append(missing, "APNS_TEAM_ID")
		}
		if c.APNs.KeyPath == "" {
			missing = append(missing, "APNS_KEY_PATH")
		}
		if c.APNs.Topic == "" {
			missing = append(missing, "APNS_TOPIC")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s required when APNS_ENABLED=true", strings.Join(missing, ", "))
		}
		if _, err := os.Stat(c.APNs.KeyPath); err != nil {
			return fmt.Errorf("APNS_KEY_PATH is not readable: %w", err)
		}
	}

	if c.Timeline.Enabled {
		if c.Timeline.ClientID == "" || c.Timeline.ClientSecret == "" {
			return fmt.Errorf("TIMELINE_CLIENT_ID and TIMELINE_CLIENT_SECRET are required when TIMELINE_ENABLED=true")
		}
		if c.Timeline.RedirectURL != "" {
			if err := validateHTTPURL(c.Timeline.RedirectURL, "TIMELINE_REDIRECT_URL", true); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package feed

import "time"

// NATSConfig configures the JetStream-backed transaction source.
// Messages on Subject carry raw rippled stream messages.
type NATSConfig struct {
	URL         string
	Subject     string
	DurableName string
	QueueGroup  string

	// StreamName binds to an existing stream instead of provisioning one.
	StreamName string

	AckWait       time.Duration
	MaxDeliver    int
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns defaults for a local NATS server.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://127.0.0.1:4222",
		Subject:       "ledger.transactions",
		DurableName:   "ripplenotify",
		QueueGroup:    "ripplenotify",
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

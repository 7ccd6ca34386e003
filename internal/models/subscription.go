// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package models

import (
	"fmt"
	"time"
)

// Channel identifies a notification delivery channel.
type Channel string

const (
	// ChannelPushService delivers through a Pushover-style push API.
	ChannelPushService Channel = "push-service"

	// ChannelMobilePush delivers through the APNs production gateway.
	ChannelMobilePush Channel = "mobile-push"

	// ChannelMobilePushSandbox delivers through the APNs development gateway.
	ChannelMobilePushSandbox Channel = "mobile-push-sandbox"

	// ChannelTimeline inserts a card into a user's timeline.
	ChannelTimeline Channel = "timeline-api"
)

// ValidChannels contains all valid delivery channels.
var ValidChannels = []Channel{
	ChannelPushService,
	ChannelMobilePush,
	ChannelMobilePushSandbox,
	ChannelTimeline,
}

// IsValidChannel checks if a channel is one of the known channels.
func IsValidChannel(c Channel) bool {
	for _, valid := range ValidChannels {
		if c == valid {
			return true
		}
	}
	return false
}

// ParseChannel converts a string to a Channel, rejecting unknown values.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !IsValidChannel(c) {
		return "", fmt.Errorf("unknown channel %q", s)
	}
	return c, nil
}

// IsSandbox reports whether the channel targets a development gateway.
func (c Channel) IsSandbox() bool {
	return c == ChannelMobilePushSandbox
}

// Endpoint is a delivery target: a channel plus the channel-specific key
// (user key, device token, or access token).
type Endpoint struct {
	Channel     Channel `json:"channel"`
	EndpointKey string  `json:"endpoint_key"`
}

// String implements fmt.Stringer with the key redacted to its last four characters.
func (e Endpoint) String() string {
	return string(e.Channel) + ":" + RedactKey(e.EndpointKey)
}

// Subscription is the persisted association between a ledger address and an endpoint.
// The (Address, Channel, EndpointKey) triple is unique.
type Subscription struct {
	Address     string    `json:"address"`
	Channel     Channel   `json:"channel"`
	EndpointKey string    `json:"endpoint_key"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Endpoint returns the delivery target of the subscription.
func (s Subscription) Endpoint() Endpoint {
	return Endpoint{Channel: s.Channel, EndpointKey: s.EndpointKey}
}

// RedactKey masks an endpoint key for logs.
func RedactKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

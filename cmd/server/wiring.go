// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/ripplenotify/internal/auth"
	"github.com/tomtom215/ripplenotify/internal/config"
	"github.com/tomtom215/ripplenotify/internal/delivery"
	"github.com/tomtom215/ripplenotify/internal/feed"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// buildChannels creates the enabled delivery adapters, each wrapped in a
// Guard. readFile loads the mobile-push signing key. The token provider is
// nil unless the timeline channel is enabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func buildChannels(cfg *config.Config, readFile func(string) ([]byte, error), logger zerolog.Logger) (*delivery.Registry, *auth.Provider, error) {
	reg := delivery.NewRegistry()
	guardCfg := delivery.GuardConfig{
		RateLimit:        cfg.Delivery.RateLimit,
		Burst:            cfg.Delivery.RateBurst,
		FailureThreshold: cfg.Delivery.BreakerFailures,
		OpenTimeout:      cfg.Delivery.BreakerTimeout,
	}
	add := func(ch delivery.Channel) {
		reg.Register(delivery.NewGuard(ch, guardCfg, logger))
		logger.Info().Str("channel", string(ch.Name())).Bool("sandbox", ch.Name().IsSandbox()).Msg("Delivery channel enabled")
	}

	if cfg.Pushover.Enabled {
		add(delivery.NewPushoverChannel(delivery.PushoverConfig{
			AppToken:    cfg.Pushover.AppToken,
			Priority:    cfg.Pushover.Priority,
			Sound:       cfg.Pushover.Sound,
			TxURLFormat: cfg.Pushover.TxURLFormat,
			Timeout:     cfg.Delivery.Timeout,
		}))
	}

	if cfg.APNs.Enabled {
		pemBytes, err := readFile(cfg.APNs.KeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read APNS_KEY_PATH: %w", err)
		}
		key, err := delivery.LoadAPNsKey(pemBytes)
		if err != nil {
			return nil, nil, err
		}
		apnsCfg := delivery.APNsConfig{
			KeyID:      cfg.APNs.KeyID,
			TeamID:     cfg.APNs.TeamID,
			SigningKey: key,
			Topic:      cfg.APNs.Topic,
			Sound:      cfg.APNs.Sound,
			TTL:        cfg.APNs.TTL,
			Timeout:    cfg.Delivery.Timeout,
		}
		for _, sandbox := range []bool{false, true} {
			ch, err := delivery.NewAPNsChannel(apnsCfg, sandbox)
			if err != nil {
				return nil, nil, err
			}
			add(ch)
		}
	}

	var tokens *auth.Provider
	if cfg.Timeline.Enabled {
		tokens = auth.NewProvider(auth.Config{
			ClientID:     cfg.Timeline.ClientID,
			ClientSecret: cfg.Timeline.ClientSecret,
			RedirectURL:  cfg.Timeline.RedirectURL,
		})
		add(delivery.NewTimelineChannel(delivery.TimelineConfig{Timeout: cfg.Delivery.Timeout}, tokens))
	}

	if len(reg.List()) == 0 {
		return nil, nil, fmt.Errorf("no delivery channel enabled")
	}
	return reg, tokens, nil
}

// buildFeed creates the configured transaction source feeding sink.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func buildFeed(cfg *config.Config, disp feedSink, logger zerolog.Logger) (suture.Service, error) {
	if cfg.Feed.Source == config.FeedSourceNATS {
		natsCfg := feed.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Subject = cfg.NATS.Subject
		natsCfg.DurableName = cfg.NATS.DurableName
		natsCfg.QueueGroup = cfg.NATS.QueueGroup
		natsCfg.StreamName = cfg.NATS.StreamName
		src, err := feed.NewNATSSource(natsCfg, disp.Events(), disp, logger)
		if err != nil {
			return nil, fmt.Errorf("create nats source: %w", err)
		}
		return src, nil
	}

	feedCfg := feed.DefaultConfig()
	feedCfg.Servers = cfg.Feed.Servers
	feedCfg.ReconnectDelay = cfg.Feed.ReconnectDelay
	feedCfg.MaxReconnectDelay = cfg.Feed.MaxReconnectDelay
	feedCfg.PingInterval = cfg.Feed.PingInterval
	feedCfg.ReadTimeout = cfg.Feed.ReadTimeout
	client, err := feed.NewClient(feedCfg, disp.Events(), disp, logger)
	if err != nil {
		return nil, fmt.Errorf("create feed client: %w", err)
	}
	return client, nil
}

// feedSink is the dispatcher surface a transaction source needs.
type feedSink interface {
	Events() chan<- models.TransactionEvent
	OnStateChange(from, to models.FeedState)
}

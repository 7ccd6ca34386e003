// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

// Package logging holds the process-wide zerolog logger and the helpers that
// tie log lines to a dispatched ledger event or an admin API request.
//
// main configures it once from the LOG_* settings:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//
// Services receive a copy of the logger and tag it with their component:
//
//	logger := logging.WithComponent("dispatcher")
//	logging.Ctx(ctx, logger).Warn().Err(err).Str("channel", "mobile-push").Msg("Delivery failed")
//
// Ctx adds the event correlation ID and the request ID when ctx carries them,
// so every delivery of one transaction can be found with a single filter.
// NewSlogLogger feeds suture's event hook and, under the nats build tag,
// NewWatermillLogger feeds the broker subscriber.
package logging

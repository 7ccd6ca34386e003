// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package models defines the data structures shared by the ripplenotify components.

Key Components:

  - Subscription: a persisted (address, channel, endpoint key) triple
  - Endpoint: the (channel, endpoint key) pair held by the registry per address
  - TransactionEvent: one validated transaction observed on the ledger feed
  - Amount: a decimal value with its currency, rendered for humans
  - Intent: one notification to deliver for a matched (transaction, address)
  - FeedState: connection state reported by the ledger feed

Channels:

  - push-service: Pushover-style title/message API keyed by user key
  - mobile-push: APNs production gateway keyed by device token
  - mobile-push-sandbox: APNs development gateway keyed by device token
  - timeline-api: timeline card insert keyed by OAuth access token

Thread Safety:

All types in this package are plain values. They carry no locks and are safe to
copy between goroutines once constructed.
*/
package models

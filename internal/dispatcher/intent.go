// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package dispatcher

import (
	"github.com/tomtom215/ripplenotify/internal/models"
)

// Classify decides what the transaction means for address. The destination
// check comes first, so a payment to oneself reads as received.
func Classify(ev *models.TransactionEvent, address string) (models.IntentKind, bool) {
	if !ev.IsPayment() || address == "" {
		return "", false
	}
	switch address {
	case ev.Destination:
		return models.IntentPaymentIn, true
	case ev.Account:
		return models.IntentPaymentOut, true
	default:
		return "", false
	}
}

// BuildIntent renders the notification for a classified transaction.
func BuildIntent(ev *models.TransactionEvent, address string, kind models.IntentKind) models.Intent {
	amount := ev.Amount.String()

	intent := models.Intent{
		Kind:    kind,
		Address: address,
		Amount:  ev.Amount,
		Hash:    ev.Hash,
	}

	switch kind {
	case models.IntentPaymentIn:
		intent.Title = "Payment received"
		intent.Message = "You received a payment"
		if amount != "" {
			intent.Message = "You received " + amount
		}
	case models.IntentPaymentOut:
		intent.Title = "Payment sent"
		intent.Message = "You sent a payment"
		if amount != "" {
			intent.Message = "You sent " + amount
		}
	}
	return intent
}

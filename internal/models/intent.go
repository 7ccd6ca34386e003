// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package models

// IntentKind classifies a transaction from the point of view of one address.
type IntentKind string

const (
	// IntentPaymentIn means the address received a payment.
	IntentPaymentIn IntentKind = "payment_in"

	// IntentPaymentOut means the address sent a payment.
	IntentPaymentOut IntentKind = "payment_out"
)

// Intent is one notification to deliver, produced for a (transaction, address) pair.
type Intent struct {
	Kind    IntentKind `json:"kind"`
	Address string     `json:"address"`
	Amount  Amount     `json:"amount"`
	Hash    string     `json:"hash"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

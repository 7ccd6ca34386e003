// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package models

import (
	"github.com/shopspring/decimal"
)

const (
	// ResultSuccess is the engine result code of a successfully applied transaction.
	ResultSuccess = "tesSUCCESS"

	// TransactionTypePayment is the only transaction type that produces notifications.
	TransactionTypePayment = "Payment"

	// NativeCurrency is the ledger's native asset.
	NativeCurrency = "XRP"
)

// Amount is a decimal value in a currency. Native amounts are already
// converted from drops.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
	Issuer   string          `json:"issuer,omitempty"`
}

// IsZero reports whether the amount carries no currency.
func (a Amount) IsZero() bool {
	return a.Currency == ""
}

// String renders the amount as "<value> <currency>", e.g. "10 USD" or "1.5 XRP".
func (a Amount) String() string {
	if a.IsZero() {
		return ""
	}
	return a.Value.String() + " " + a.Currency
}

// TransactionEvent is one transaction observed on the ledger feed.
type TransactionEvent struct {
	Hash             string   `json:"hash"`
	ResultCode       string   `json:"engine_result"`
	Validated        bool     `json:"validated"`
	LedgerIndex      uint64   `json:"ledger_index,omitempty"`
	TransactionType  string   `json:"transaction_type"`
	Account          string   `json:"account"`
	Destination      string   `json:"destination,omitempty"`
	Amount           Amount   `json:"amount"`
	AffectedAccounts []string `json:"affected_accounts,omitempty"`
}

// IsSuccess reports whether the transaction was applied successfully.
func (e *TransactionEvent) IsSuccess() bool {
	return e.ResultCode == ResultSuccess
}

// IsPayment reports whether the transaction is a payment.
func (e *TransactionEvent) IsPayment() bool {
	return e.TransactionType == TransactionTypePayment
}

// Affected returns the addresses touched by the transaction. When the feed
// supplied no list, the source and destination are used.
func (e *TransactionEvent) Affected() []string {
	if len(e.AffectedAccounts) > 0 {
		return e.AffectedAccounts
	}
	out := make([]string, 0, 2)
	if e.Account != "" {
		out = append(out, e.Account)
	}
	if e.Destination != "" && e.Destination != e.Account {
		out = append(out, e.Destination)
	}
	return out
}

// FeedState is the connection state of the ledger feed.
type FeedState int

const (
	// FeedDisconnected means no connection is open.
	FeedDisconnected FeedState = iota
	// FeedConnecting means a connection attempt is in progress.
	FeedConnecting
	// FeedConnected means the feed is subscribed and streaming.
	FeedConnected
)

// String implements fmt.Stringer.
func (s FeedState) String() string {
	switch s {
	case FeedDisconnected:
		return "disconnected"
	case FeedConnecting:
		return "connecting"
	case FeedConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// dropsExponent is the power of ten separating drops from XRP.
const dropsExponent = 6

// ErrInvalidAmount is returned for amounts that are neither drop strings nor
// issued-currency objects.
var ErrInvalidAmount = errors.New("invalid ledger amount")

// issuedAmount is the JSON shape of a non-native amount.
type issuedAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
}

// ParseAmount decodes a ledger amount. A JSON string is a native amount in
// drops and is converted to XRP; an object is an issued currency amount.
func ParseAmount(raw json.RawMessage) (models.Amount, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return models.Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	if trimmed[0] == '"' {
		var drops string
		if err := json.Unmarshal(raw, &drops); err != nil {
			return models.Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		return ParseDrops(drops)
	}

	var issued issuedAmount
	if err := json.Unmarshal(raw, &issued); err != nil {
		return models.Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if issued.Currency == "" || issued.Value == "" {
		return models.Amount{}, fmt.Errorf("%w: missing value or currency", ErrInvalidAmount)
	}
	value, err := decimal.NewFromString(issued.Value)
	if err != nil {
		return models.Amount{}, fmt.Errorf("%w: value %q: %v", ErrInvalidAmount, issued.Value, err)
	}
	return models.Amount{
		Value:    value,
		Currency: CurrencyCode(issued.Currency),
		Issuer:   issued.Issuer,
	}, nil
}

// ParseDrops converts a drop count to a native XRP amount.
func ParseDrops(drops string) (models.Amount, error) {
	value, err := decimal.NewFromString(drops)
	if err != nil {
		return models.Amount{}, fmt.Errorf("%w: drops %q: %v", ErrInvalidAmount, drops, err)
	}
	if !value.Equal(value.Truncate(0)) {
		return models.Amount{}, fmt.Errorf("%w: fractional drops %q", ErrInvalidAmount, drops)
	}
	return models.Amount{
		Value:    value.Shift(-dropsExponent),
		Currency: models.NativeCurrency,
	}, nil
}

// CurrencyCode returns a display form of a currency code. Standard three
// letter codes pass through; 160-bit hex codes that hold printable ASCII are
// decoded, anything else is returned unchanged.
func CurrencyCode(code string) string {
	if len(code) != 40 {
		return code
	}
	b, err := hex.DecodeString(code)
	if err != nil {
		return code
	}
	text := strings.TrimRight(string(b), "\x00")
	if text == "" {
		return code
	}
	for _, r := range text {
		if r < 0x20 || r > 0x7e {
			return code
		}
	}
	return text
}

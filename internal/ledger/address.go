// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package ledger

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ledgerAlphabet is the base58 alphabet used for ledger addresses.
const ledgerAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const (
	accountIDVersion = 0x00
	accountIDLength  = 20
	checksumLength   = 4
)

// ErrInvalidAddress is returned for strings that are not classic ledger addresses.
var ErrInvalidAddress = errors.New("invalid ledger address")

var alphabet = base58.NewAlphabet(ledgerAlphabet)

// ValidateAddress checks that s is a classic address: base58check with the
// ledger alphabet, version byte 0x00 and a 20-byte account ID.
func ValidateAddress(s string) error {
	if len(s) < 25 || len(s) > 35 || s[0] != 'r' {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	decoded, err := base58.DecodeAlphabet(s, alphabet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != 1+accountIDLength+checksumLength {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(decoded))
	}
	if decoded[0] != accountIDVersion {
		return fmt.Errorf("%w: version byte 0x%02x", ErrInvalidAddress, decoded[0])
	}

	payload := decoded[:len(decoded)-checksumLength]
	if !bytes.Equal(checksum(payload), decoded[len(decoded)-checksumLength:]) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return nil
}

// IsValidAddress is the boolean form of ValidateAddress.
func IsValidAddress(s string) bool {
	return ValidateAddress(s) == nil
}

// EncodeAddress renders a 20-byte account ID as a classic address.
func EncodeAddress(accountID [accountIDLength]byte) string {
	payload := make([]byte, 0, 1+accountIDLength+checksumLength)
	payload = append(payload, accountIDVersion)
	payload = append(payload, accountID[:]...)
	payload = append(payload, checksum(payload)...)
	return base58.EncodeAlphabet(payload, alphabet)
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

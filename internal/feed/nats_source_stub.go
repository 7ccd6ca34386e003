// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

//go:build !nats

package feed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// ErrNATSDisabled is returned when the binary was built without the nats tag.
var ErrNATSDisabled = errors.New("NATS support not enabled (build with -tags nats)")

// NATSSource is a stub for non-NATS builds.
type NATSSource struct{}

// NewNATSSource returns ErrNATSDisabled in non-NATS builds.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewNATSSource(_ NATSConfig, _ chan<- models.TransactionEvent, _ Observer, _ zerolog.Logger) (*NATSSource, error) {
	return nil, ErrNATSDisabled
}

// Serve returns ErrNATSDisabled.
func (s *NATSSource) Serve(_ context.Context) error {
	return ErrNATSDisabled
}

// String implements fmt.Stringer.
func (s *NATSSource) String() string {
	return "nats-feed"
}

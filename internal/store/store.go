// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/models"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrUnknownDriver is returned by Open for an unsupported driver.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// MemoryPath opens an in-memory database for the sqlite and badger drivers.
const MemoryPath = ":memory:"

// Store is the durable table of subscriptions.
type Store interface {
	// ListAll returns every persisted row, including rows with an empty address.
	ListAll(ctx context.Context) ([]models.Subscription, error)

	// Add persists a subscription. Adding an existing triple is a no-op.
	Add(ctx context.Context, sub models.Subscription) error

	// Remove deletes a subscription. Removing a missing triple is a no-op.
	Remove(ctx context.Context, sub models.Subscription) error

	// Move binds an endpoint to address to in a single transaction,
	// removing every other row for the same endpoint. It returns the
	// addresses removed. An endpoint with no rows is simply added.
	Move(ctx context.Context, ep models.Endpoint, to string) (previous []string, err error)

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Driver is one of sqlite, postgres or badger.
	Driver string

	// Path is the database file (sqlite) or directory (badger).
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string
}

// Open creates the configured backend and prepares its schema.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "store").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Path, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, logger)
	case DriverBadger:
		return OpenBadger(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

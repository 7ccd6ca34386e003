// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tomtom215/ripplenotify/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	address      TEXT NOT NULL DEFAULT '',
	channel      TEXT NOT NULL,
	endpoint_key TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	UNIQUE(address, channel, endpoint_key)
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_endpoint ON subscriptions(channel, endpoint_key);
`

// SQLiteStore persists subscriptions in a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
	logger zerolog.Logger
}

// OpenSQLite opens (or creates) the database at path. MemoryPath gives a
// private in-memory database.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenSQLite(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("Subscription store opened")
	return &SQLiteStore{db: db, logger: logger}, nil
}

// ListAll returns every row in insertion order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]models.Subscription, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT address, channel, endpoint_key, created_at FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		var (
			sub     models.Subscription
			channel string
			created int64
		)
		if err := rows.Scan(&sub.Address, &channel, &sub.EndpointKey, &created); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		ch, err := models.ParseChannel(channel)
		if err != nil {
			s.logger.Warn().Err(err).Str("address", sub.Address).Msg("Skipping subscription with unknown channel")
			continue
		}
		sub.Channel = ch
		sub.CreatedAt = time.UnixMilli(created).UTC()
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Add inserts the row unless it already exists.
func (s *SQLiteStore) Add(ctx context.Context, sub models.Subscription) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, sqliteInsert,
		sub.Address, string(sub.Channel), sub.EndpointKey, createdAt(sub).UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

const sqliteInsert = `INSERT OR IGNORE INTO subscriptions (address, channel, endpoint_key, created_at) VALUES (?, ?, ?, ?)`

const sqliteDelete = `DELETE FROM subscriptions WHERE address = ? AND channel = ? AND endpoint_key = ?`

// Remove deletes the row if present.
func (s *SQLiteStore) Remove(ctx context.Context, sub models.Subscription) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, sqliteDelete, sub.Address, string(sub.Channel), sub.EndpointKey); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Move binds the endpoint to address to and deletes its other rows in one
// transaction. It returns the addresses the endpoint was bound to before.
func (s *SQLiteStore) Move(ctx context.Context, ep models.Endpoint, to string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, sqliteSelectOthers, string(ep.Channel), ep.EndpointKey, to)
	if err != nil {
		return nil, fmt.Errorf("query current bindings: %w", err)
	}
	previous, err := scanAddresses(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, sqliteInsert, to, string(ep.Channel), ep.EndpointKey, time.Now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("insert rebound subscription: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteDeleteOthers, string(ep.Channel), ep.EndpointKey, to); err != nil {
		return nil, fmt.Errorf("delete previous subscriptions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}
	return previous, nil
}

const (
	sqliteSelectOthers = `SELECT address FROM subscriptions WHERE channel = ? AND endpoint_key = ? AND address <> ? ORDER BY id`
	sqliteDeleteOthers = `DELETE FROM subscriptions WHERE channel = ? AND endpoint_key = ? AND address <> ?`
)

func scanAddresses(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var addresses []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return addresses, nil
}

// Close closes the database. Closing twice is safe.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	s.logger.Info().Msg("Subscription store closed")
	return nil
}

func createdAt(sub models.Subscription) time.Time {
	if sub.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return sub.CreatedAt
}

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id           BIGSERIAL PRIMARY KEY,
	address      TEXT NOT NULL DEFAULT '',
	channel      TEXT NOT NULL,
	endpoint_key TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (address, channel, endpoint_key)
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_endpoint ON subscriptions (channel, endpoint_key);
`

const (
	postgresInsert = `
		INSERT INTO subscriptions (address, channel, endpoint_key, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address, channel, endpoint_key) DO NOTHING
	`
	postgresDelete       = `DELETE FROM subscriptions WHERE address = $1 AND channel = $2 AND endpoint_key = $3`
	postgresDeleteOthers = `
		DELETE FROM subscriptions
		WHERE channel = $1 AND endpoint_key = $2 AND address <> $3
		RETURNING address
	`
)

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// PostgresStore persists subscriptions in PostgreSQL.
type PostgresStore struct {
	pool   *Pool
	closed atomic.Bool
	logger zerolog.Logger
}

// OpenPostgres connects to dsn and creates the schema if needed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenPostgres(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresStore(ctx, pool, logger)
}

// NewPostgresStore uses an existing pool and creates the schema if needed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPostgresStore(ctx context.Context, pool *Pool, logger zerolog.Logger) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}

	logger.Info().Msg("Subscription store opened")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// ListAll returns every row in insertion order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]models.Subscription, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.pool.Query(ctx,
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
		)
		if err := rows.Scan(&sub.Address, &channel, &sub.EndpointKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		ch, err := models.ParseChannel(channel)
		if err != nil {
			s.logger.Warn().Err(err).Str("address", sub.Address).Msg("Skipping subscription with unknown channel")
			continue
		}
		sub.Channel = ch
		sub.CreatedAt = sub.CreatedAt.UTC()
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Add inserts the row unless it already exists.
func (s *PostgresStore) Add(ctx context.Context, sub models.Subscription) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.pool.Exec(ctx, postgresInsert,
		sub.Address, string(sub.Channel), sub.EndpointKey, createdAt(sub),
	); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Remove deletes the row if present.
func (s *PostgresStore) Remove(ctx context.Context, sub models.Subscription) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.pool.Exec(ctx, postgresDelete, sub.Address, string(sub.Channel), sub.EndpointKey); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Move binds the endpoint to address to and deletes its other rows in one
// transaction. It returns the addresses the endpoint was bound to before.
func (s *PostgresStore) Move(ctx context.Context, ep models.Endpoint, to string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var previous []string
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, postgresDeleteOthers, string(ep.Channel), ep.EndpointKey, to)
		if err != nil {
			return fmt.Errorf("delete previous subscriptions: %w", err)
		}
		previous, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect previous addresses: %w", err)
		}
		if _, err := tx.Exec(ctx, postgresInsert, to, string(ep.Channel), ep.EndpointKey, time.Now().UTC()); err != nil {
			return fmt.Errorf("insert rebound subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// Close releases the pool. Closing twice is safe.
func (s *PostgresStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.pool.Close()
	s.logger.Info().Msg("Subscription store closed")
	return nil
}

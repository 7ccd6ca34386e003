// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// Key layout: sub/<address>\x00<channel>\x00<endpoint_key>
const prefixSubscription = "sub/"

// BadgerStore persists subscriptions in an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	closed atomic.Bool
	logger zerolog.Logger
}

// OpenBadger opens (or creates) a database in dir. MemoryPath keeps
// everything in memory.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenBadger(dir string, logger zerolog.Logger) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("badger path is required")
	}

	opts := badger.DefaultOptions(dir)
	if dir == MemoryPath {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logger.Info().Str("path", dir).Msg("Subscription store opened")
	return &BadgerStore{db: db, logger: logger}, nil
}

func subscriptionKey(address string, channel models.Channel, endpointKey string) []byte {
	return []byte(prefixSubscription + address + "\x00" + string(channel) + "\x00" + endpointKey)
}

// ListAll returns every row ordered by key.
func (s *BadgerStore) ListAll(ctx context.Context) ([]models.Subscription, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	subs := make([]models.Subscription, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixSubscription)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var sub models.Subscription
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sub)
			}); err != nil {
				s.logger.Warn().Err(err).Str("key", string(item.Key())).Msg("Skipping undecodable subscription")
				continue
			}
			subs = append(subs, sub)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Add writes the row unless it already exists.
func (s *BadgerStore) Add(ctx context.Context, sub models.Subscription) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return putIfAbsent(txn, sub)
	}); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Remove deletes the row if present.
func (s *BadgerStore) Remove(ctx context.Context, sub models.Subscription) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(subscriptionKey(sub.Address, sub.Channel, sub.EndpointKey))
	}); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Move binds the endpoint to address to and deletes its other rows in one
// transaction. It returns the addresses the endpoint was bound to before.
// Keys are ordered by address, so this scans every subscription.
func (s *BadgerStore) Move(ctx context.Context, ep models.Endpoint, to string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var previous []string
	err := s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefixSubscription)})
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				it.Close()
				return err
			}
			key := it.Item().KeyCopy(nil)
			address, channel, endpointKey, ok := splitSubscriptionKey(key)
			if !ok || channel != string(ep.Channel) || endpointKey != ep.EndpointKey || address == to {
				continue
			}
			previous = append(previous, address)
			stale = append(stale, key)
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return putIfAbsent(txn, models.Subscription{
			Address:     to,
			Channel:     ep.Channel,
			EndpointKey: ep.EndpointKey,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("move subscription: %w", err)
	}
	return previous, nil
}

func splitSubscriptionKey(key []byte) (address, channel, endpointKey string, ok bool) {
	parts := strings.SplitN(strings.TrimPrefix(string(key), prefixSubscription), "\x00", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func putIfAbsent(txn *badger.Txn, sub models.Subscription) error {
	key := subscriptionKey(sub.Address, sub.Channel, sub.EndpointKey)
	_, err := txn.Get(key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	sub.CreatedAt = createdAt(sub)
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	return txn.SetEntry(badger.NewEntry(key, data))
}

// Close closes the database. Closing twice is safe.
func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		s.logger.Info().Msg("Subscription store closed")
		return nil
	case <-time.After(30 * time.Second):
		return errors.New("badgerdb close timeout after 30s")
	}
}

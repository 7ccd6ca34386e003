// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

// Package registry holds the in-memory mapping from ledger addresses to the
// endpoints that want notifications for them.
//
// Registry is safe for concurrent use. Writers (the admin layer) and readers
// (the dispatcher) never observe a partially updated address: SubscribersFor
// returns a copy taken under the read lock.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/metrics"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// Lister supplies the persisted subscriptions replayed at startup.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
}

// Registry maps an address to its set of endpoints.
type Registry struct {
	mu        sync.RWMutex
	byAddress map[string]map[models.Endpoint]struct{}
	endpoints int
	logger    zerolog.Logger
}

// New creates an empty registry.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		byAddress: make(map[string]map[models.Endpoint]struct{}),
		logger:    logger.With().Str("component", "registry").Logger(),
	}
}

// Subscribe adds the endpoint to the address's set. It reports whether the
// set changed; subscribing an existing triple is a silent no-op.
func (r *Registry) Subscribe(address string, channel models.Channel, endpointKey string) bool {
	ep := models.Endpoint{Channel: channel, EndpointKey: endpointKey}

	r.mu.Lock()
	set, ok := r.byAddress[address]
	if !ok {
		set = make(map[models.Endpoint]struct{})
		r.byAddress[address] = set
	}
	if _, exists := set[ep]; exists {
		r.mu.Unlock()
		return false
	}
	set[ep] = struct{}{}
	r.endpoints++
	addresses, endpoints := len(r.byAddress), r.endpoints
	r.mu.Unlock()

	metrics.SetRegistrySize(addresses, endpoints)
	r.logger.Debug().Str("address", address).Stringer("endpoint", ep).Msg("Subscribed")
	return true
}

// Unsubscribe removes the endpoint from the address's set. Removing an
// unknown address or endpoint is a no-op. It reports whether the set changed.
func (r *Registry) Unsubscribe(address string, channel models.Channel, endpointKey string) bool {
	ep := models.Endpoint{Channel: channel, EndpointKey: endpointKey}

	r.mu.Lock()
	set, ok := r.byAddress[address]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if _, exists := set[ep]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(set, ep)
	r.endpoints--
	if len(set) == 0 {
		delete(r.byAddress, address)
	}
	addresses, endpoints := len(r.byAddress), r.endpoints
	r.mu.Unlock()

	metrics.SetRegistrySize(addresses, endpoints)
	r.logger.Debug().Str("address", address).Stringer("endpoint", ep).Msg("Unsubscribed")
	return true
}

// SubscribersFor returns a snapshot of the endpoints subscribed to address,
// ordered by channel then key. The result is empty for unknown addresses and
// is not affected by later mutations.
func (r *Registry) SubscribersFor(address string) []models.Endpoint {
	r.mu.RLock()
	set := r.byAddress[address]
	out := make([]models.Endpoint, 0, len(set))
	for ep := range set {
		out = append(out, ep)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].EndpointKey < out[j].EndpointKey
	})
	return out
}

// Stats returns the number of addresses and endpoint entries held.
func (r *Registry) Stats() (addresses, endpoints int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress), r.endpoints
}

// Prime replays persisted subscriptions into the registry. Rows with an empty
// address belong to endpoints that have not chosen an address yet and are
// skipped. It returns the number of rows applied.
func (r *Registry) Prime(ctx context.Context, lister Lister) (int, error) {
	subs, err := lister.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	primed, skipped := 0, 0
	for _, s := range subs {
		if s.Address == "" {
			skipped++
			continue
		}
		r.Subscribe(s.Address, s.Channel, s.EndpointKey)
		primed++
	}

	r.logger.Info().
		Int("primed", primed).
		Int("skipped", skipped).
		Msg("Resubscribed persisted subscriptions")
	return primed, nil
}

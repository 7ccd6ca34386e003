// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/ledger"
	"github.com/tomtom215/ripplenotify/internal/logging"
	"github.com/tomtom215/ripplenotify/internal/metrics"
	"github.com/tomtom215/ripplenotify/internal/models"
	"github.com/tomtom215/ripplenotify/internal/registry"
	"github.com/tomtom215/ripplenotify/internal/store"
)

var (
	// ErrInvalidAddress is returned for an address that fails checksum validation.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidEndpoint is returned when the channel adapter rejects the endpoint key.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// Registry is the in-memory subscription index.
type Registry interface {
	Subscribe(address string, channel models.Channel, endpointKey string) bool
	Unsubscribe(address string, channel models.Channel, endpointKey string) bool
	SubscribersFor(address string) []models.Endpoint
	Stats() (addresses, endpoints int)
	Prime(ctx context.Context, lister registry.Lister) (int, error)
}

// EndpointValidator checks an endpoint key against its channel.
type EndpointValidator interface {
	ValidateEndpoint(ep models.Endpoint) error
}

// Service keeps the registry and the store consistent.
type Service struct {
	// mu serializes mutations so the store and the registry apply them in
	// the same order.
	mu sync.Mutex

	registry  Registry
	store     store.Store
	endpoints EndpointValidator
	logger    zerolog.Logger
}

// NewService creates a Service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(reg Registry, st store.Store, endpoints EndpointValidator, logger zerolog.Logger) *Service {
	return &Service{
		registry:  reg,
		store:     st,
		endpoints: endpoints,
		logger:    logger.With().Str("component", "admin").Logger(),
	}
}

// Subscribe validates and persists the triple, then adds it to the registry.
// Subscribing an existing triple succeeds without changes.
func (s *Service) Subscribe(ctx context.Context, address string, ep models.Endpoint) error {
	if err := s.validate(address, ep); err != nil {
		return err
	}

	sub := models.Subscription{Address: address, Channel: ep.Channel, EndpointKey: ep.EndpointKey}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Add(ctx, sub); err != nil {
		return fmt.Errorf("persist subscription: %w", err)
	}

	added := s.registry.Subscribe(address, ep.Channel, ep.EndpointKey)
	s.publishStats()

	logging.Ctx(ctx, s.logger).Info().
		Str("address", address).
		Stringer("endpoint", ep).
		Bool("added", added).
		Msg("Subscribed")
	return nil
}

// Unsubscribe removes the triple from the store and the registry. Removing
// an unknown triple succeeds without changes.
func (s *Service) Unsubscribe(ctx context.Context, address string, ep models.Endpoint) error {
	sub := models.Subscription{Address: address, Channel: ep.Channel, EndpointKey: ep.EndpointKey}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, sub); err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}

	removed := s.registry.Unsubscribe(address, ep.Channel, ep.EndpointKey)
	s.publishStats()

	logging.Ctx(ctx, s.logger).Info().
		Str("address", address).
		Stringer("endpoint", ep).
		Bool("removed", removed).
		Msg("Unsubscribed")
	return nil
}

// Register persists an endpoint with no address. The registry is untouched:
// an endpoint without an address receives nothing until it is rebound.
func (s *Service) Register(ctx context.Context, ep models.Endpoint) error {
	if err := s.validateEndpoint(ep); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Add(ctx, models.Subscription{Channel: ep.Channel, EndpointKey: ep.EndpointKey}); err != nil {
		return fmt.Errorf("register endpoint: %w", err)
	}

	logging.Ctx(ctx, s.logger).Info().Stringer("endpoint", ep).Msg("Registered endpoint")
	return nil
}

// Rebind binds an endpoint to address to, replacing whatever address the
// store currently holds for it. An endpoint the store does not know yet is
// bound as if newly subscribed.
func (s *Service) Rebind(ctx context.Context, ep models.Endpoint, to string) error {
	if err := s.validate(to, ep); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.store.Move(ctx, ep, to)
	if err != nil {
		return fmt.Errorf("rebind endpoint: %w", err)
	}

	for _, from := range previous {
		if from != "" {
			s.registry.Unsubscribe(from, ep.Channel, ep.EndpointKey)
		}
	}
	s.registry.Subscribe(to, ep.Channel, ep.EndpointKey)
	s.publishStats()

	logging.Ctx(ctx, s.logger).Info().
		Strs("from", previous).
		Str("to", to).
		Stringer("endpoint", ep).
		Msg("Rebound endpoint")
	return nil
}

// Subscriptions returns the endpoints currently notified for address.
func (s *Service) Subscriptions(address string) []models.Endpoint {
	return s.registry.SubscribersFor(address)
}

// Resubscribe primes the registry from the store. It is called once at startup.
func (s *Service) Resubscribe(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.registry.Prime(ctx, s.store)
	if err != nil {
		return 0, fmt.Errorf("resubscribe: %w", err)
	}
	s.publishStats()
	return n, nil
}

func (s *Service) validate(address string, ep models.Endpoint) error {
	if err := ledger.ValidateAddress(address); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return s.validateEndpoint(ep)
}

func (s *Service) validateEndpoint(ep models.Endpoint) error {
	if err := s.endpoints.ValidateEndpoint(ep); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	return nil
}

func (s *Service) publishStats() {
	metrics.SetRegistrySize(s.registry.Stats())
}

// Stats reports the registry size.
func (s *Service) Stats() (addresses, endpoints int) {
	return s.registry.Stats()
}

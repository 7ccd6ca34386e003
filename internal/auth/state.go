// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidState is returned for an unknown, expired or already used state.
var ErrInvalidState = errors.New("invalid oauth state")

// DefaultStateTTL bounds how long a consent round trip may take.
const DefaultStateTTL = 10 * time.Minute

// stateStore holds single-use consent states in memory.
type stateStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	states map[string]time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &stateStore{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]time.Time),
	}
}

// issue creates and records a new state. Expired entries are swept on the way.
func (s *stateStore) issue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(s.ttl)
	return state, nil
}

// consume validates state and deletes it so it cannot be replayed.
func (s *stateStore) consume(state string) error {
	s.mu.Lock()
	exp, ok := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()

	if !ok || s.now().After(exp) {
		return ErrInvalidState
	}
	return nil
}

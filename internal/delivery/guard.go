// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/ripplenotify/internal/metrics"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// errTransientFailure marks a failed Result so the breaker counts it.
var errTransientFailure = errors.New("transient delivery failure")

// GuardConfig configures per-channel protection.
type GuardConfig struct {
	// RateLimit is the sustained sends per second; 0 disables limiting.
	RateLimit float64

	// Burst is the limiter bucket size. Default: 1.
	Burst int

	// FailureThreshold is the number of consecutive transient failures that
	// opens the breaker. Default: 5.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open. Default: 30s.
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of trial requests allowed while half-open. Default: 1.
	HalfOpenRequests uint32
}

// DefaultGuardConfig returns sensible protection defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RateLimit:        20,
		Burst:            10,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Guard wraps a Channel with a rate limiter and a circuit breaker. Only
// transient failures count towards opening the breaker. Guard itself never
// retries.
type Guard struct {
	inner   Channel
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Result]
	logger  zerolog.Logger
}

// NewGuard wraps ch.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewGuard(ch Channel, cfg GuardConfig, logger zerolog.Logger) *Guard {
	def := DefaultGuardConfig()
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}

	g := &Guard{
		inner:  ch,
		logger: logger.With().Str("component", "delivery_guard").Str("channel", string(ch.Name())).Logger(),
	}
	if cfg.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	channelName := string(ch.Name())
	g.breaker = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        channelName,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, breakerStateValue(to))
			g.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Delivery circuit breaker state changed")
		},
	})
	metrics.SetCircuitBreakerState(channelName, 0)
	return g
}

// Name returns the wrapped channel's name.
func (g *Guard) Name() models.Channel {
	return g.inner.Name()
}

// Validate delegates to the wrapped channel.
func (g *Guard) Validate(endpointKey string) error {
	return g.inner.Validate(endpointKey)
}

// State returns the breaker state.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// Send waits for the rate limiter, then performs one attempt through the breaker.
func (g *Guard) Send(ctx context.Context, params *SendParams) (*Result, error) {
	if params == nil || params.Intent == nil {
		return nil, fmt.Errorf("guard: nil intent")
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			res := newResult(params)
			res.fail(ErrorCodeRateLimited, fmt.Sprintf("rate limiter: %v", err))
			return res, nil
		}
	}

	res, err := g.breaker.Execute(func() (*Result, error) {
		r, sendErr := g.inner.Send(ctx, params)
		if sendErr != nil {
			return r, sendErr
		}
		if !r.Success && r.IsTransient {
			return r, errTransientFailure
		}
		return r, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		r := newResult(params)
		r.fail(ErrorCodeCircuitOpen, fmt.Sprintf("circuit breaker %s: %v", g.inner.Name(), err))
		return r, nil
	case errors.Is(err, errTransientFailure):
		return res, nil
	case err != nil:
		return res, err
	}
	return res, nil
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

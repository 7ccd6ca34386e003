// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/delivery"
	"github.com/tomtom215/ripplenotify/internal/models"
	"github.com/tomtom215/ripplenotify/internal/registry"
)

// gatedChannel holds every send until release is closed and tracks the
// highest number of concurrent sends.
type gatedChannel struct {
	release chan struct{}

	mu       sync.Mutex
	inFlight int
	peak     int
	sends    int
}

func (c *gatedChannel) Name() models.Channel { return models.ChannelPushService }

func (c *gatedChannel) Validate(string) error { return nil }

func (c *gatedChannel) Send(_ context.Context, _ *delivery.SendParams) (*delivery.Result, error) {
	c.mu.Lock()
	c.inFlight++
	c.sends++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	c.mu.Unlock()

	<-c.release

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	now := time.Now()
	return &delivery.Result{Success: true, Channel: models.ChannelPushService, DeliveredAt: &now}, nil
}

func (c *gatedChannel) stats() (inFlight, peak, sends int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight, c.peak, c.sends
}

func newGatedDispatcher(t *testing.T, cfg Config, endpoints int) (*Dispatcher, *gatedChannel) {
	t.Helper()

	gate := &gatedChannel{release: make(chan struct{})}
	channels := delivery.NewRegistry()
	channels.Register(gate)

	subs := registry.New(zerolog.Nop())
	for i := 0; i < endpoints; i++ {
		subs.Subscribe("rAlice", models.ChannelPushService, fmt.Sprintf("U%d", i))
	}
	return New(subs, channels, cfg, zerolog.Nop()), gate
}

func TestDispatch_WorkerPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	d, gate := newGatedDispatcher(t, Config{Workers: 2}, 6)

	done := make(chan int, 1)
	go func() { done <- d.Dispatch(context.Background(), payment("rBob", "rAlice", "10", "USD", "H1")) }()

	// Queueing must not wait for the held deliveries.
	select {
	case n := <-done:
		if n != 6 {
			t.Fatalf("Dispatch() started %d deliveries, want 6", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch() blocked on busy workers")
	}

	deadline := time.After(2 * time.Second)
	for {
		if inFlight, _, _ := gate.stats(); inFlight == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("workers never picked up deliveries")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	if _, peak, _ := gate.stats(); peak != 2 {
		t.Errorf("peak concurrent sends = %d, want 2", peak)
	}

	close(gate.release)
	d.Wait()

	if _, peak, sends := gate.stats(); sends != 6 || peak > 2 {
		t.Errorf("sends = %d peak = %d, want 6 sends with at most 2 concurrent", sends, peak)
	}
}

func TestDispatch_FullTaskQueueYieldsToContext(t *testing.T) {
	t.Parallel()

	d, gate := newGatedDispatcher(t, Config{Workers: 1, TaskQueueSize: 1}, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// One delivery held by the worker, one queued, the third cannot be placed.
	if n := d.Dispatch(ctx, payment("rBob", "rAlice", "10", "USD", "H1")); n != 2 {
		t.Errorf("Dispatch() started %d deliveries, want 2", n)
	}

	close(gate.release)
	d.Wait()

	if _, _, sends := gate.stats(); sends > 2 {
		t.Errorf("sends = %d, want at most 2", sends)
	}
}

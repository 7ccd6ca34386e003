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
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/ledger"
	"github.com/tomtom215/ripplenotify/internal/models"
	"github.com/tomtom215/ripplenotify/internal/registry"
	"github.com/tomtom215/ripplenotify/internal/store"
)

var (
	addrA = ledger.EncodeAddress([20]byte{1})
	addrB = ledger.EncodeAddress([20]byte{2})
	addrC = ledger.EncodeAddress([20]byte{3})
)

// keyValidator rejects the literal key "bad".
type keyValidator struct{}

func (keyValidator) ValidateEndpoint(ep models.Endpoint) error {
	if ep.EndpointKey == "bad" {
		return errors.New("rejected")
	}
	return nil
}

type fixture struct {
	svc   *Service
	reg   *registry.Registry
	store store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.OpenSQLite(context.Background(), store.MemoryPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	reg := registry.New(zerolog.Nop())
	return &fixture{
		svc:   NewService(reg, st, keyValidator{}, zerolog.Nop()),
		reg:   reg,
		store: st,
	}
}

func (f *fixture) rows(t *testing.T) []models.Subscription {
	t.Helper()
	subs, err := f.store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	return subs
}

func pushEndpoint(key string) models.Endpoint {
	return models.Endpoint{Channel: models.ChannelPushService, EndpointKey: key}
}

func TestService_SubscribeUnsubscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ep := pushEndpoint("U1")

	for i := 0; i < 2; i++ {
		if err := f.svc.Subscribe(ctx, addrA, ep); err != nil {
			t.Fatalf("Subscribe() #%d error = %v", i, err)
		}
	}

	if got := f.svc.Subscriptions(addrA); len(got) != 1 || got[0] != ep {
		t.Errorf("Subscriptions() = %v, want [%v]", got, ep)
	}
	if rows := f.rows(t); len(rows) != 1 {
		t.Errorf("store rows = %d, want 1", len(rows))
	}

	if err := f.svc.Unsubscribe(ctx, addrA, ep); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if got := f.svc.Subscriptions(addrA); len(got) != 0 {
		t.Errorf("Subscriptions() after unsubscribe = %v", got)
	}
	if rows := f.rows(t); len(rows) != 0 {
		t.Errorf("store rows after unsubscribe = %d, want 0", len(rows))
	}

	// Unknown triple.
	if err := f.svc.Unsubscribe(ctx, addrB, ep); err != nil {
		t.Errorf("Unsubscribe() unknown error = %v", err)
	}
}

func TestService_SubscribeValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		address string
		key     string
		wantErr error
	}{
		{"empty address", "", "U1", ErrInvalidAddress},
		{"bad checksum", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi", "U1", ErrInvalidAddress},
		{"rejected key", addrA, "bad", ErrInvalidEndpoint},
	}

	for _, tt := range tests {
		err := f.svc.Subscribe(ctx, tt.address, pushEndpoint(tt.key))
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: Subscribe() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	if rows := f.rows(t); len(rows) != 0 {
		t.Errorf("rejected subscriptions were persisted: %v", rows)
	}
	if addresses, _ := f.reg.Stats(); addresses != 0 {
		t.Errorf("rejected subscriptions reached the registry: %d addresses", addresses)
	}
}

func TestService_RegisterThenRebind(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ep := pushEndpoint("U1")

	if err := f.svc.Register(ctx, ep); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if addresses, _ := f.reg.Stats(); addresses != 0 {
		t.Errorf("Register() touched the registry")
	}

	if err := f.svc.Rebind(ctx, ep, addrA); err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	if got := f.svc.Subscriptions(addrA); len(got) != 1 {
		t.Errorf("Subscriptions(A) = %v, want 1 endpoint", got)
	}

	if err := f.svc.Rebind(ctx, ep, addrB); err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	if got := f.svc.Subscriptions(addrA); len(got) != 0 {
		t.Errorf("Subscriptions(A) after rebind = %v, want none", got)
	}
	if got := f.svc.Subscriptions(addrB); len(got) != 1 || got[0] != ep {
		t.Errorf("Subscriptions(B) = %v, want [%v]", got, ep)
	}

	rows := f.rows(t)
	if len(rows) != 1 || rows[0].Address != addrB {
		t.Errorf("store rows = %+v, want single row for B", rows)
	}
}

func TestService_RebindUsesStoredBinding(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ep := pushEndpoint("U1")

	// The endpoint is bound to two addresses; a rebind replaces both.
	if err := f.svc.Register(ctx, ep); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := f.svc.Rebind(ctx, ep, addrA); err != nil {
		t.Fatalf("Rebind(A) error = %v", err)
	}
	if err := f.svc.Subscribe(ctx, addrB, ep); err != nil {
		t.Fatalf("Subscribe(B) error = %v", err)
	}
	if err := f.svc.Rebind(ctx, ep, addrC); err != nil {
		t.Fatalf("Rebind(C) error = %v", err)
	}

	for _, addr := range []string{addrA, addrB} {
		if got := f.svc.Subscriptions(addr); len(got) != 0 {
			t.Errorf("Subscriptions(%s) = %v, want none", addr, got)
		}
	}
	if got := f.svc.Subscriptions(addrC); len(got) != 1 || got[0] != ep {
		t.Errorf("Subscriptions(C) = %v, want [%v]", got, ep)
	}
	rows := f.rows(t)
	if len(rows) != 1 || rows[0].Address != addrC {
		t.Errorf("store rows = %+v, want single row for C", rows)
	}
	if addresses, endpoints := f.reg.Stats(); addresses != 1 || endpoints != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", addresses, endpoints)
	}
}

func TestService_RebindUnknownEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ep := pushEndpoint("U1")

	if err := f.svc.Rebind(ctx, ep, addrA); err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	if got := f.svc.Subscriptions(addrA); len(got) != 1 || got[0] != ep {
		t.Errorf("Subscriptions(A) = %v, want [%v]", got, ep)
	}
	if rows := f.rows(t); len(rows) != 1 {
		t.Errorf("store rows = %+v, want 1", rows)
	}
}

func TestService_RebindRejectsInvalidTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ep := pushEndpoint("U1")

	if err := f.svc.Subscribe(ctx, addrA, ep); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Rebind(ctx, ep, "not-an-address"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("Rebind() error = %v, want ErrInvalidAddress", err)
	}
	if got := f.svc.Subscriptions(addrA); len(got) != 1 {
		t.Errorf("failed rebind changed the registry: %v", got)
	}
}

func TestService_Resubscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	rows := []models.Subscription{
		{Address: addrA, Channel: models.ChannelPushService, EndpointKey: "U1"},
		{Address: addrB, Channel: models.ChannelMobilePush, EndpointKey: "T1"},
		{Address: "", Channel: models.ChannelTimeline, EndpointKey: "G1"},
	}
	for _, r := range rows {
		if err := f.store.Add(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := f.svc.Resubscribe(ctx)
	if err != nil {
		t.Fatalf("Resubscribe() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Resubscribe() = %d, want 2", n)
	}
	if addresses, endpoints := f.reg.Stats(); addresses != 2 || endpoints != 2 {
		t.Errorf("Stats() = (%d, %d), want (2, 2)", addresses, endpoints)
	}
}

func TestService_StoreFailureLeavesRegistryUntouched(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Close(); err != nil {
		t.Fatal(err)
	}

	err := f.svc.Subscribe(ctx, addrA, pushEndpoint("U1"))
	if !errors.Is(err, store.ErrClosed) {
		t.Fatalf("Subscribe() error = %v, want ErrClosed", err)
	}
	if got := f.svc.Subscriptions(addrA); len(got) != 0 {
		t.Errorf("registry changed despite store failure: %v", got)
	}
}

// gatedStore holds the first Add open after it has written, until release
// is closed.
type gatedStore struct {
	store.Store

	once     sync.Once
	added    chan struct{}
	release  chan struct{}
	removing chan struct{}
}

func newGatedStore(inner store.Store) *gatedStore {
	return &gatedStore{
		Store:    inner,
		added:    make(chan struct{}),
		release:  make(chan struct{}),
		removing: make(chan struct{}, 1),
	}
}

func (g *gatedStore) Add(ctx context.Context, sub models.Subscription) error {
	err := g.Store.Add(ctx, sub)
	g.once.Do(func() {
		close(g.added)
		<-g.release
	})
	return err
}

func (g *gatedStore) Remove(ctx context.Context, sub models.Subscription) error {
	select {
	case g.removing <- struct{}{}:
	default:
	}
	return g.Store.Remove(ctx, sub)
}

func TestService_ConcurrentSubscribeUnsubscribeStayConsistent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	gated := newGatedStore(f.store)
	svc := NewService(f.reg, gated, keyValidator{}, zerolog.Nop())
	ctx := context.Background()
	ep := pushEndpoint("U1")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- svc.Subscribe(ctx, addrA, ep)
	}()

	select {
	case <-gated.added:
	case <-time.After(5 * time.Second):
		t.Fatal("Subscribe never reached the store")
	}

	go func() {
		defer wg.Done()
		errs <- svc.Unsubscribe(ctx, addrA, ep)
	}()

	select {
	case <-gated.removing:
		t.Error("Unsubscribe reached the store while Subscribe was still applying")
	case <-time.After(100 * time.Millisecond):
	}

	close(gated.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("mutation error = %v", err)
		}
	}

	rows := f.rows(t)
	subs := svc.Subscriptions(addrA)
	if len(rows) != 0 || len(subs) != 0 {
		t.Errorf("store rows = %+v, registry = %v, want both empty", rows, subs)
	}
}

func TestService_ConcurrentRebindsAgreeWithStore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ep := pushEndpoint("U1")
	targets := []string{addrA, addrB, addrC}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				if err := f.svc.Rebind(ctx, ep, targets[(w+i)%len(targets)]); err != nil {
					errs <- fmt.Errorf("worker %d: %w", w, err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	rows := f.rows(t)
	if len(rows) != 1 {
		t.Fatalf("store rows = %+v, want exactly one binding", rows)
	}
	for _, addr := range targets {
		got := f.svc.Subscriptions(addr)
		if want := addr == rows[0].Address; (len(got) == 1) != want {
			t.Errorf("Subscriptions(%s) = %v, store binds %s", addr, got, rows[0].Address)
		}
	}
}

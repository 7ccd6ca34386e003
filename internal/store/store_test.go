// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package store

import (
	"context"
	"errors"
	"slices"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/models"
)

func sub(address string, channel models.Channel, key string) models.Subscription {
	return models.Subscription{Address: address, Channel: channel, EndpointKey: key}
}

// triples drops timestamps and sorts, so backends with different orderings
// compare equal.
func triples(subs []models.Subscription) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Address+"|"+string(s.Channel)+"|"+s.EndpointKey)
	}
	sort.Strings(out)
	return out
}

func assertRows(t *testing.T, st Store, want ...string) {
	t.Helper()

	subs, err := st.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	got := triples(subs)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("ListAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListAll() = %v, want %v", got, want)
		}
	}
}

func assertAddresses(t *testing.T, got []string, want ...string) {
	t.Helper()

	got = slices.Clone(got)
	sort.Strings(got)
	sort.Strings(want)
	if !slices.Equal(got, want) {
		t.Fatalf("previous addresses = %q, want %q", got, want)
	}
}

// runStoreTests exercises the behavior every backend must share.
func runStoreTests(t *testing.T, open func(t *testing.T) Store) {
	t.Run("add is idempotent", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		for range 2 {
			if err := st.Add(ctx, sub("rAlice", models.ChannelPushService, "U1")); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
		}
		if err := st.Add(ctx, sub("rAlice", models.ChannelTimeline, "T1")); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		assertRows(t, st, "rAlice|push-service|U1", "rAlice|timeline-api|T1")

		subs, err := st.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		for _, s := range subs {
			if s.CreatedAt.IsZero() {
				t.Errorf("row %v has no CreatedAt", s)
			}
		}
	})

	t.Run("remove missing is a no-op", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		if err := st.Remove(ctx, sub("rNobody", models.ChannelPushService, "U1")); err != nil {
			t.Fatalf("Remove(missing) error = %v", err)
		}
		if err := st.Add(ctx, sub("rAlice", models.ChannelPushService, "U1")); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if err := st.Remove(ctx, sub("rAlice", models.ChannelPushService, "U1")); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		assertRows(t, st)
	})

	t.Run("empty address rows are listed", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		rows := []models.Subscription{
			sub("rAlice", models.ChannelPushService, "U1"),
			sub("", models.ChannelTimeline, "T1"),
			sub("rBob", models.ChannelMobilePush, "D1"),
		}
		for _, r := range rows {
			if err := st.Add(ctx, r); err != nil {
				t.Fatalf("Add(%v) error = %v", r, err)
			}
		}
		assertRows(t, st, "rAlice|push-service|U1", "|timeline-api|T1", "rBob|mobile-push|D1")
	})

	t.Run("move rebinds the endpoint", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()
		ep := models.Endpoint{Channel: models.ChannelTimeline, EndpointKey: "T1"}

		if err := st.Add(ctx, sub("", ep.Channel, ep.EndpointKey)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		previous, err := st.Move(ctx, ep, "rAlice")
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		assertAddresses(t, previous, "")
		assertRows(t, st, "rAlice|timeline-api|T1")

		// Moving onto an address that already has the endpoint collapses rows.
		if err := st.Add(ctx, sub("rBob", ep.Channel, ep.EndpointKey)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		previous, err = st.Move(ctx, ep, "rBob")
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		assertAddresses(t, previous, "rAlice")
		assertRows(t, st, "rBob|timeline-api|T1")

		previous, err = st.Move(ctx, ep, "rBob")
		if err != nil {
			t.Fatalf("Move(same) error = %v", err)
		}
		assertAddresses(t, previous)
		assertRows(t, st, "rBob|timeline-api|T1")
	})

	t.Run("move removes every stale binding", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()
		ep := models.Endpoint{Channel: models.ChannelPushService, EndpointKey: "U1"}

		for _, r := range []models.Subscription{
			sub("rAlice", ep.Channel, ep.EndpointKey),
			sub("rBob", ep.Channel, ep.EndpointKey),
			sub("rAlice", ep.Channel, "U2"),
			sub("rAlice", models.ChannelTimeline, "U1"),
		} {
			if err := st.Add(ctx, r); err != nil {
				t.Fatalf("Add(%v) error = %v", r, err)
			}
		}

		previous, err := st.Move(ctx, ep, "rCarol")
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		assertAddresses(t, previous, "rAlice", "rBob")
		assertRows(t, st,
			"rCarol|push-service|U1",
			"rAlice|push-service|U2",
			"rAlice|timeline-api|U1",
		)
	})

	t.Run("move of an unknown endpoint adds it", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		previous, err := st.Move(ctx, models.Endpoint{Channel: models.ChannelMobilePush, EndpointKey: "D1"}, "rAlice")
		if err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		assertAddresses(t, previous)
		assertRows(t, st, "rAlice|mobile-push|D1")
	})

	t.Run("closed store", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		if err := st.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := st.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
		if _, err := st.ListAll(ctx); !errors.Is(err, ErrClosed) {
			t.Errorf("ListAll() after Close error = %v, want ErrClosed", err)
		}
		if err := st.Add(ctx, sub("rAlice", models.ChannelPushService, "U1")); !errors.Is(err, ErrClosed) {
			t.Errorf("Add() after Close error = %v, want ErrClosed", err)
		}
		if err := st.Remove(ctx, sub("rAlice", models.ChannelPushService, "U1")); !errors.Is(err, ErrClosed) {
			t.Errorf("Remove() after Close error = %v, want ErrClosed", err)
		}
		if _, err := st.Move(ctx, models.Endpoint{}, "b"); !errors.Is(err, ErrClosed) {
			t.Errorf("Move() after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	st, err := Open(ctx, Config{Driver: DriverSQLite, Path: MemoryPath}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	if _, ok := st.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T", st)
	}
	_ = st.Close()

	st, err = Open(ctx, Config{Driver: DriverBadger, Path: MemoryPath}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(badger) error = %v", err)
	}
	if _, ok := st.(*BadgerStore); !ok {
		t.Errorf("Open(badger) = %T", st)
	}
	_ = st.Close()

	if _, err := Open(ctx, Config{Driver: "mysql"}, zerolog.Nop()); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open(mysql) error = %v, want ErrUnknownDriver", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverPostgres}, zerolog.Nop()); err == nil {
		t.Error("Open(postgres without dsn) error = nil")
	}
	if _, err := Open(ctx, Config{Driver: DriverSQLite}, zerolog.Nop()); err == nil {
		t.Error("Open(sqlite without path) error = nil")
	}
}

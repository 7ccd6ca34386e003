// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/models"
)

func TestBadgerStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		st, err := OpenBadger(MemoryPath, zerolog.Nop())
		if err != nil {
			t.Fatalf("OpenBadger() error = %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	st, err := OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	if err := st.Add(ctx, sub("rAlice", models.ChannelMobilePushSandbox, "D1")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	assertRows(t, reopened, "rAlice|mobile-push-sandbox|D1")
}

func TestSubscriptionKey_Unambiguous(t *testing.T) {
	t.Parallel()

	a := subscriptionKey("rA", models.ChannelPushService, "x")
	b := subscriptionKey("rAx", models.ChannelPushService, "")
	if string(a) == string(b) {
		t.Errorf("keys collide: %q", a)
	}
}

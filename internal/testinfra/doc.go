// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

// Package testinfra provides container helpers for integration tests.
//
// Everything here is built only with the integration tag and uses
// testcontainers-go. Tests are skipped when Docker is unavailable:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    pg := testinfra.StartPostgres(t)
//	    st, err := store.OpenPostgres(ctx, pg.DSN, zerolog.Nop())
//	    // ...
//	}
//
// First runs may need to pull container images; later runs use the cache.
package testinfra

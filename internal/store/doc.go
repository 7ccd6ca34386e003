// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package store persists subscriptions across restarts.

The registry decides who is notified right now; the store remembers who
should be subscribed after the next start. At startup every row is replayed
into the registry through ListAll, and the admin layer writes each mutation
to both before acknowledging it.

Three backends implement Store:

  - sqlite (default): modernc.org/sqlite, a single file opened in WAL mode
  - postgres: pgxpool, for deployments that already run PostgreSQL
  - badger: an embedded key/value store, one key per subscription

All backends treat the (address, channel, endpoint_key) triple as unique:
Add of an existing row and Remove of a missing row both succeed without
changing anything. Rows with an empty address are endpoints that registered
before choosing an address.

Example:

	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, Path: "ripplenotify.db"}, logger)
	if err != nil {
	    return err
	}
	defer st.Close()
*/
package store

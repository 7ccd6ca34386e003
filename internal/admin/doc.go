// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package admin applies subscription changes to the in-memory registry and the
durable store together.

Every mutation is validated first (ledger address checksum, channel-specific
endpoint key), then written to the store, then applied to the registry. A
request is only acknowledged once both sides agree, so a restart replays
exactly the set of endpoints that were being notified before it.

Operations:

  - Subscribe / Unsubscribe: add or remove one (address, channel, key) triple.
  - Register: persist an endpoint that has not chosen an address yet. Such
    rows are skipped when the registry is primed.
  - Rebind: move an endpoint from one address to another.
  - Resubscribe: prime the registry from every persisted row at startup.

The HTTP surface over these operations lives in internal/api.
*/
package admin

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package feed owns the connection to the ledger transaction stream.

Client keeps a websocket subscription to one of a list of rippled servers,
rotating through the list on every reconnect with exponential backoff
(1s doubling to 30s by default). Each validated transaction is decoded with
ledger.ParseStreamMessage and written to a sink channel, normally the
dispatcher's event queue. Writes block while the sink is full, so the
feed applies backpressure rather than dropping events.

Connection transitions are reported to an Observer:

	Disconnected -> Connecting -> Connected -> Disconnected -> Connecting ...

Nothing is replayed after a reconnect. Transactions validated while the
client was disconnected are never seen.

When built with the nats tag, NATSSource consumes the same stream messages
from a JetStream subject instead, for deployments where a single relay
process holds the rippled connection.

Both sources implement suture.Service.
*/
package feed

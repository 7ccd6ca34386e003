// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package dispatcher turns ledger transaction events into notification deliveries.

Events arrive on a bounded queue and are processed one at a time, in arrival
order. For each event the dispatcher:

 1. drops it unless the engine result is tesSUCCESS
 2. determines the affected addresses (feed supplied, or source and destination)
 3. classifies the transaction per address: a Payment to the address is
    payment_in, a Payment from the address is payment_out, anything else
    produces nothing
 4. looks up the address's endpoints in the registry and starts one delivery
    task per endpoint

Delivery tasks run on their own goroutines. Starting a task never blocks the
consume loop; at most Config.Workers tasks perform outbound calls at once. A
task's failure or panic is logged and recorded without affecting any other
task, and nothing is retried.

The dispatcher also observes the ledger feed's connection state. Transitions
are logged and exported as a gauge; no recovery action is taken here.

Dispatcher implements suture.Service through Serve and String.
*/
package dispatcher

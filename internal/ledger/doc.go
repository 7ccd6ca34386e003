// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package ledger decodes the XRP Ledger wire formats used by ripplenotify.

It covers three concerns:

  - Addresses: base58check validation with the ledger alphabet (ValidateAddress)
  - Amounts: native drop strings and issued-currency objects (ParseAmount)
  - Stream messages: rippled "transaction" stream messages converted to
    models.TransactionEvent, including the accounts affected according to the
    transaction metadata (ParseStreamMessage)

Example:

	ev, err := ledger.ParseStreamMessage(raw)
	if errors.Is(err, ledger.ErrNotTransaction) {
	    return // response or ledgerClosed message
	}
	fmt.Println(ev.Amount) // "10 USD"
*/
package ledger

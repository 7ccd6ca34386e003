// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import "errors"

// Request body errors
var (
	// ErrEmptyBody indicates a mutation request arrived without a JSON body
	ErrEmptyBody = errors.New("request body is empty")

	// ErrTrailingData indicates the body held more than one JSON value
	ErrTrailingData = errors.New("request body must contain a single JSON object")
)

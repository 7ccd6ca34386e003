// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once with the custom tags used by the
// admin API:
//
//   - ripple_address: a classic ledger address with a valid checksum
//   - channel: one of the known delivery channels
//
// Field names in error messages come from the json tag, so a client sees the
// same name it sent.
//
//	type SubscribeRequest struct {
//	    Address     string `json:"address" validate:"required,ripple_address"`
//	    Channel     string `json:"channel" validate:"required,channel"`
//	    EndpointKey string `json:"endpoint_key" validate:"required,max=512"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // 400 with apiErr.Code, apiErr.Message, apiErr.Details
//	}
package validation

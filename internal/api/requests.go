// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import "github.com/tomtom215/ripplenotify/internal/models"

// SubscriptionRequest is the body of POST and DELETE /api/v1/subscriptions.
type SubscriptionRequest struct {
	Address     string `json:"address" validate:"required,ripple_address"`
	Channel     string `json:"channel" validate:"required,channel"`
	EndpointKey string `json:"endpoint_key" validate:"required,max=2048"`
}

// UnsubscribeRequest is the body of DELETE /api/v1/subscriptions. The address
// is not checksum-validated so rows stored before validation tightened can
// still be removed.
type UnsubscribeRequest struct {
	Address     string `json:"address" validate:"required,max=64"`
	Channel     string `json:"channel" validate:"required,channel"`
	EndpointKey string `json:"endpoint_key" validate:"required,max=2048"`
}

// RegisterRequest is the body of POST /api/v1/endpoints.
type RegisterRequest struct {
	Channel     string `json:"channel" validate:"required,channel"`
	EndpointKey string `json:"endpoint_key" validate:"required,max=2048"`
}

// RebindRequest is the body of PUT /api/v1/endpoints/address. The endpoint's
// current address is looked up server side.
type RebindRequest struct {
	Channel     string `json:"channel" validate:"required,channel"`
	EndpointKey string `json:"endpoint_key" validate:"required,max=2048"`
	To          string `json:"to" validate:"required,ripple_address"`
}

// SubscriptionsResponse lists the endpoints notified for an address.
type SubscriptionsResponse struct {
	Address   string            `json:"address"`
	Endpoints []EndpointSummary `json:"endpoints"`
}

// EndpointSummary is an endpoint with its key redacted.
type EndpointSummary struct {
	Channel     models.Channel `json:"channel"`
	EndpointKey string         `json:"endpoint_key"`
}

func endpoint(channel, key string) models.Endpoint {
	return models.Endpoint{Channel: models.Channel(channel), EndpointKey: key}
}

func summarize(eps []models.Endpoint) []EndpointSummary {
	out := make([]EndpointSummary, len(eps))
	for i, ep := range eps {
		out[i] = EndpointSummary{Channel: ep.Channel, EndpointKey: models.RedactKey(ep.EndpointKey)}
	}
	return out
}

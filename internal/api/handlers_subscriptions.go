// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ripplenotify/internal/ledger"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// Subscribe handles POST /api/v1/subscriptions.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SubscriptionRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	if err := h.service.Subscribe(r.Context(), req.Address, endpoint(req.Channel, req.EndpointKey)); err != nil {
		serviceError(rw, err)
		return
	}

	rw.Created(SubscriptionsResponse{
		Address:   req.Address,
		Endpoints: summarize(h.service.Subscriptions(req.Address)),
	})
}

// Unsubscribe handles DELETE /api/v1/subscriptions. Unknown subscriptions
// are not an error.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req UnsubscribeRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req.Address, endpoint(req.Channel, req.EndpointKey)); err != nil {
		serviceError(rw, err)
		return
	}

	rw.Success(SubscriptionsResponse{
		Address:   req.Address,
		Endpoints: summarize(h.service.Subscriptions(req.Address)),
	})
}

// ListSubscriptions handles GET /api/v1/subscriptions/{address}.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	address := chi.URLParam(r, "address")
	if err := ledger.ValidateAddress(address); err != nil {
		rw.ValidationError(err.Error(), map[string]interface{}{"field": "address"})
		return
	}

	rw.Success(SubscriptionsResponse{
		Address:   address,
		Endpoints: summarize(h.service.Subscriptions(address)),
	})
}

// RegisterEndpoint handles POST /api/v1/endpoints.
func (h *Handler) RegisterEndpoint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	ep := endpoint(req.Channel, req.EndpointKey)
	if err := h.service.Register(r.Context(), ep); err != nil {
		serviceError(rw, err)
		return
	}

	rw.Created(summarize([]models.Endpoint{ep})[0])
}

// RebindEndpoint handles PUT /api/v1/endpoints/address.
func (h *Handler) RebindEndpoint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RebindRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	if err := h.service.Rebind(r.Context(), endpoint(req.Channel, req.EndpointKey), req.To); err != nil {
		serviceError(rw, err)
		return
	}

	rw.Success(SubscriptionsResponse{
		Address:   req.To,
		Endpoints: summarize(h.service.Subscriptions(req.To)),
	})
}

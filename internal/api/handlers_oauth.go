// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/tomtom215/ripplenotify/internal/auth"
	"github.com/tomtom215/ripplenotify/internal/logging"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// TimelineAuthorizer runs the consent flow that yields timeline access tokens.
type TimelineAuthorizer interface {
	Begin() (string, error)
	Complete(ctx context.Context, state, code string) (*oauth2.Token, error)
	Forget(accessToken string)
}

// TimelineEndpointResponse is returned once a consent round trip has
// registered a timeline endpoint. The key is shown unredacted exactly once so
// the caller can bind it to an address.
type TimelineEndpointResponse struct {
	Channel     models.Channel `json:"channel"`
	EndpointKey string         `json:"endpoint_key"`
	Expiry      *time.Time     `json:"expiry,omitempty"`
}

// TimelineAuthStart handles GET /api/v1/oauth/timeline/start.
func (h *Handler) TimelineAuthStart(w http.ResponseWriter, r *http.Request) {
	if h.timelineAuth == nil {
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "timeline channel is not enabled")
		return
	}

	consentURL, err := h.timelineAuth.Begin()
	if err != nil {
		rw := NewResponseWriter(w, r)
		if errors.Is(err, auth.ErrNotConfigured) {
			rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "timeline OAuth client is not configured")
			return
		}
		logging.Error().Err(err).Msg("Failed to start timeline consent")
		rw.InternalError("failed to start authorization")
		return
	}

	http.Redirect(w, r, consentURL, http.StatusFound)
}

// TimelineAuthCallback handles GET /api/v1/oauth/timeline/callback. The
// access token becomes an endpoint with no address.
func (h *Handler) TimelineAuthCallback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.timelineAuth == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "timeline channel is not enabled")
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		logging.Warn().Str("error", errParam).Msg("Timeline consent denied")
		rw.BadRequest("authorization denied: " + errParam)
		return
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		rw.BadRequest("code and state are required")
		return
	}

	tok, err := h.timelineAuth.Complete(r.Context(), state, code)
	switch {
	case errors.Is(err, auth.ErrInvalidState):
		rw.BadRequest(err.Error())
		return
	case errors.Is(err, auth.ErrNotConfigured):
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "timeline OAuth client is not configured")
		return
	case err != nil:
		logging.Error().Err(err).Msg("Timeline token exchange failed")
		rw.Error(http.StatusBadGateway, ErrCodeUpstreamError, "token exchange failed")
		return
	}

	ep := models.Endpoint{Channel: models.ChannelTimeline, EndpointKey: tok.AccessToken}
	if err := h.service.Register(r.Context(), ep); err != nil {
		h.timelineAuth.Forget(tok.AccessToken)
		serviceError(rw, err)
		return
	}

	resp := TimelineEndpointResponse{Channel: ep.Channel, EndpointKey: ep.EndpointKey}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		resp.Expiry = &expiry
	}
	rw.Created(resp)
}

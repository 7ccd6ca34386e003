// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ripplenotify/internal/admin"
	"github.com/tomtom215/ripplenotify/internal/models"
	"github.com/tomtom215/ripplenotify/internal/validation"
)

// maxBodyBytes bounds request bodies on mutation routes.
const maxBodyBytes = 64 << 10

// SubscriptionService is the admin service the handlers drive.
type SubscriptionService interface {
	Subscribe(ctx context.Context, address string, ep models.Endpoint) error
	Unsubscribe(ctx context.Context, address string, ep models.Endpoint) error
	Register(ctx context.Context, ep models.Endpoint) error
	Rebind(ctx context.Context, ep models.Endpoint, to string) error
	Subscriptions(address string) []models.Endpoint
	Stats() (addresses, endpoints int)
}

// FeedStatus reports the ledger feed connection state.
type FeedStatus interface {
	FeedState() models.FeedState
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, body decoding (this file)
//   - handlers_health.go: health and readiness checks
//   - handlers_subscriptions.go: subscription and endpoint management
//   - handlers_oauth.go: timeline consent flow
type Handler struct {
	service      SubscriptionService
	feed         FeedStatus
	channels     []models.Channel
	timelineAuth TimelineAuthorizer
	startTime    time.Time
}

// NewHandler creates a new API handler. channels lists the delivery channels
// that are enabled, reported by /health.
func NewHandler(service SubscriptionService, feed FeedStatus, channels []models.Channel) *Handler {
	return &Handler{
		service:   service,
		feed:      feed,
		channels:  channels,
		startTime: time.Now(),
	}
}

// WithTimelineAuth enables the timeline consent routes.
func (h *Handler) WithTimelineAuth(a TimelineAuthorizer) *Handler {
	h.timelineAuth = a
	return h
}

// decodeJSON reads a single JSON object from the request body into dst and
// validates it. It writes the error response itself and reports whether the
// handler should continue.
func decodeJSON(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(rw.w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		rw.BadRequest("failed to read request body")
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		rw.BadRequest(ErrEmptyBody.Error())
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("invalid JSON: " + err.Error())
		return false
	}
	if dec.More() {
		rw.BadRequest(ErrTrailingData.Error())
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// serviceError maps admin errors to responses.
func serviceError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrInvalidAddress), errors.Is(err, admin.ErrInvalidEndpoint):
		rw.ValidationError(err.Error(), nil)
	default:
		rw.StorageError(err)
	}
}

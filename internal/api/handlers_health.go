// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status     string           `json:"status"`
	FeedState  string           `json:"feed_state"`
	Addresses  int              `json:"addresses"`
	Endpoints  int              `json:"endpoints"`
	Channels   []models.Channel `json:"channels"`
	UptimeSecs float64          `json:"uptime_seconds"`
}

// Health reports the feed state and registry size. It always answers 200;
// a disconnected feed is reported as degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.feedState()
	addresses, endpoints := h.service.Stats()

	status := "healthy"
	if state != models.FeedConnected {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:     status,
		FeedState:  state.String(),
		Addresses:  addresses,
		Endpoints:  endpoints,
		Channels:   h.channels,
		UptimeSecs: time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles Kubernetes-style liveness checks
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles Kubernetes-style readiness checks
// Returns 200 OK only once the ledger feed is connected
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	state := h.feedState()
	rw := NewResponseWriter(w, r)

	if state != models.FeedConnected {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"ledger feed is not connected", map[string]string{"feed_state": state.String()})
		return
	}

	rw.Success(map[string]interface{}{
		"ready":      true,
		"feed_state": state.String(),
	})
}

func (h *Handler) feedState() models.FeedState {
	if h.feed == nil {
		return models.FeedDisconnected
	}
	return h.feed.FeedState()
}

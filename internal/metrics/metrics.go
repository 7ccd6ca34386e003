// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger Feed Metrics
	FeedState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ripplenotify_feed_state",
			Help: "Ledger feed connection state (0=disconnected, 1=connecting, 2=connected)",
		},
	)

	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ripplenotify_feed_reconnects_total",
			Help: "Total number of ledger feed reconnection attempts",
		},
	)

	FeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ripplenotify_feed_messages_total",
			Help: "Total number of messages read from the ledger feed",
		},
		[]string{"type"}, // "transaction", "response", "ledgerClosed", "invalid"
	)

	// Dispatcher Metrics
	DispatchEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ripplenotify_dispatch_events_total",
			Help: "Total number of transaction events handled by the dispatcher",
		},
		[]string{"outcome"}, // "dispatched", "dropped_result", "no_subscribers"
	)

	DispatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ripplenotify_dispatch_in_flight",
			Help: "Number of delivery tasks currently running",
		},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ripplenotify_dispatch_queue_depth",
			Help: "Number of events waiting in the dispatcher queue",
		},
	)

	// Delivery Metrics
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ripplenotify_deliveries_total",
			Help: "Total number of notification deliveries by channel and status",
		},
		[]string{"channel", "status", "error_code"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ripplenotify_delivery_duration_seconds",
			Help:    "Duration of outbound delivery calls in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ripplenotify_circuit_breaker_state",
			Help: "Delivery circuit breaker state per channel (0=closed, 1=half-open, 2=open)",
		},
		[]string{"channel"},
	)

	// Registry Metrics
	RegistryAddresses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ripplenotify_registry_addresses",
			Help: "Number of ledger addresses with at least one subscription",
		},
	)

	RegistryEndpoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ripplenotify_registry_endpoints",
			Help: "Number of (address, endpoint) subscriptions held in memory",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ripplenotify_api_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ripplenotify_api_request_duration_seconds",
			Help:    "Admin API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordDelivery records the outcome of one delivery attempt.
func RecordDelivery(channel string, success bool, errorCode string, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	Deliveries.WithLabelValues(channel, status, errorCode).Inc()
	DeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordDispatch records how the dispatcher handled one event.
func RecordDispatch(outcome string) {
	DispatchEvents.WithLabelValues(outcome).Inc()
}

// RecordFeedMessage counts one message read from the ledger feed.
func RecordFeedMessage(msgType string) {
	if msgType == "" {
		msgType = "unknown"
	}
	FeedMessages.WithLabelValues(msgType).Inc()
}

// SetFeedState publishes the feed connection state.
func SetFeedState(state int) {
	FeedState.Set(float64(state))
}

// SetRegistrySize publishes the registry gauges.
func SetRegistrySize(addresses, endpoints int) {
	RegistryAddresses.Set(float64(addresses))
	RegistryEndpoints.Set(float64(endpoints))
}

// SetCircuitBreakerState publishes a breaker state for a channel.
func SetCircuitBreakerState(channel string, state int) {
	CircuitBreakerState.WithLabelValues(channel).Set(float64(state))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

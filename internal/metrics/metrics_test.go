// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDelivery(t *testing.T) {
	tests := []struct {
		name      string
		channel   string
		success   bool
		errorCode string
		status    string
	}{
		{"push success", "push-service", true, "", "success"},
		{"mobile failure", "mobile-push", false, "AUTH_FAILED", "failure"},
		{"timeline timeout", "timeline-api", false, "TIMEOUT", "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := Deliveries.WithLabelValues(tt.channel, tt.status, tt.errorCode)
			before := testutil.ToFloat64(counter)

			RecordDelivery(tt.channel, tt.success, tt.errorCode, 25*time.Millisecond)

			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("deliveries counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordDispatch(t *testing.T) {
	counter := DispatchEvents.WithLabelValues("dropped_result")
	before := testutil.ToFloat64(counter)

	RecordDispatch("dropped_result")
	RecordDispatch("dropped_result")

	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("dispatch counter = %v, want %v", got, before+2)
	}
}

func TestRecordFeedMessage_EmptyType(t *testing.T) {
	counter := FeedMessages.WithLabelValues("unknown")
	before := testutil.ToFloat64(counter)

	RecordFeedMessage("")

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("unknown message counter = %v, want %v", got, before+1)
	}
}

func TestGauges(t *testing.T) {
	SetFeedState(2)
	if got := testutil.ToFloat64(FeedState); got != 2 {
		t.Errorf("FeedState = %v, want 2", got)
	}

	SetRegistrySize(3, 7)
	var m dto.Metric
	if err := RegistryEndpoints.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 7 {
		t.Errorf("RegistryEndpoints = %v, want 7", got)
	}
	if got := testutil.ToFloat64(RegistryAddresses); got != 3 {
		t.Errorf("RegistryAddresses = %v, want 3", got)
	}

	SetCircuitBreakerState("push-service", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("push-service")); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("POST", "/api/v1/subscriptions", "201")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("POST", "/api/v1/subscriptions", 201, 3*time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("api counter = %v, want %v", got, before+1)
	}
}

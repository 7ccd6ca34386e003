// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/admin"
	"github.com/tomtom215/ripplenotify/internal/ledger"
	"github.com/tomtom215/ripplenotify/internal/models"
	"github.com/tomtom215/ripplenotify/internal/registry"
	"github.com/tomtom215/ripplenotify/internal/store"
)

var (
	addrA = ledger.EncodeAddress([20]byte{0xA})
	addrB = ledger.EncodeAddress([20]byte{0xB})
)

type fixedFeed models.FeedState

func (f fixedFeed) FeedState() models.FeedState { return models.FeedState(f) }

// rejectBad fails endpoint keys equal to "bad".
type rejectBad struct{}

func (rejectBad) ValidateEndpoint(ep models.Endpoint) error {
	if ep.EndpointKey == "bad" {
		return errors.New("key rejected by channel")
	}
	return nil
}

type testServer struct {
	handler http.Handler
	store   store.Store
}

func newTestServer(t *testing.T, feed FeedStatus) *testServer {
	t.Helper()

	st, err := store.OpenSQLite(context.Background(), store.MemoryPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	svc := admin.NewService(registry.New(zerolog.Nop()), st, rejectBad{}, zerolog.Nop())
	h := NewHandler(svc, feed, []models.Channel{models.ChannelPushService})

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 0
	return &testServer{
		handler: NewRouter(h, NewChiMiddleware(cfg)).SetupChi(),
		store:   st,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		return rec, APIResponse{}
	}
	return rec, decodeResponse(t, rec)
}

func subscriptionBody(address, channel, key string) string {
	b, _ := json.Marshal(map[string]string{"address": address, "channel": channel, "endpoint_key": key})
	return string(b)
}

// dataAs re-decodes the response data into out.
func dataAs(t *testing.T, resp APIResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

func TestRouter_SubscribeListUnsubscribe(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixedFeed(models.FeedConnected))

	rec, resp := s.do(t, http.MethodPost, "/api/v1/subscriptions", subscriptionBody(addrA, "push-service", "uQiRzpo4DXghDmr9QzzfQu27cmVRsG"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var created SubscriptionsResponse
	dataAs(t, resp, &created)
	if len(created.Endpoints) != 1 || created.Endpoints[0].EndpointKey != "****VRsG" {
		t.Errorf("created = %+v, want one redacted endpoint", created)
	}

	// Duplicate subscribe is accepted without a second row.
	rec, _ = s.do(t, http.MethodPost, "/api/v1/subscriptions", subscriptionBody(addrA, "push-service", "uQiRzpo4DXghDmr9QzzfQu27cmVRsG"))
	if rec.Code != http.StatusCreated {
		t.Errorf("duplicate POST status = %d", rec.Code)
	}
	if rows, _ := s.store.ListAll(context.Background()); len(rows) != 1 {
		t.Errorf("store rows = %d, want 1", len(rows))
	}

	rec, resp = s.do(t, http.MethodGet, "/api/v1/subscriptions/"+addrA, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var listed SubscriptionsResponse
	dataAs(t, resp, &listed)
	if listed.Address != addrA || len(listed.Endpoints) != 1 || listed.Endpoints[0].Channel != models.ChannelPushService {
		t.Errorf("listed = %+v", listed)
	}

	rec, resp = s.do(t, http.MethodDelete, "/api/v1/subscriptions", subscriptionBody(addrA, "push-service", "uQiRzpo4DXghDmr9QzzfQu27cmVRsG"))
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	var remaining SubscriptionsResponse
	dataAs(t, resp, &remaining)
	if len(remaining.Endpoints) != 0 {
		t.Errorf("after DELETE endpoints = %+v", remaining.Endpoints)
	}

	// Unknown subscription is a no-op.
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/subscriptions", subscriptionBody(addrB, "timeline-api", "tok"))
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE unknown status = %d", rec.Code)
	}
}

func TestRouter_SubscribeValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixedFeed(models.FeedConnected))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"empty body", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"malformed json", "{", http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", `{"address":"` + addrA + `","channel":"push-service","endpoint_key":"k","extra":1}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"trailing data", subscriptionBody(addrA, "push-service", "k") + "{}", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad address", subscriptionBody("rNotAnAddress", "push-service", "k"), http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown channel", subscriptionBody(addrA, "sms", "k"), http.StatusBadRequest, ErrCodeValidationFailed},
		{"missing key", subscriptionBody(addrA, "push-service", ""), http.StatusBadRequest, ErrCodeValidationFailed},
		{"channel rejects key", subscriptionBody(addrA, "push-service", "bad"), http.StatusBadRequest, ErrCodeValidationFailed},
		{"oversized body", `{"address":"` + strings.Repeat("r", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := s.do(t, http.MethodPost, "/api/v1/subscriptions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}

	if rows, _ := s.store.ListAll(context.Background()); len(rows) != 0 {
		t.Errorf("invalid requests persisted rows: %+v", rows)
	}
}

func TestRouter_RegisterAndRebind(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixedFeed(models.FeedConnected))

	rec, _ := s.do(t, http.MethodPost, "/api/v1/endpoints", `{"channel":"timeline-api","endpoint_key":"access-token-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	rebind := func(to string) *httptest.ResponseRecorder {
		b, _ := json.Marshal(RebindRequest{Channel: "timeline-api", EndpointKey: "access-token-1", To: to})
		rec, _ := s.do(t, http.MethodPut, "/api/v1/endpoints/address", string(b))
		return rec
	}

	if rec := rebind(addrA); rec.Code != http.StatusOK {
		t.Fatalf("rebind to A status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := rebind(addrB); rec.Code != http.StatusOK {
		t.Fatalf("rebind to B status = %d", rec.Code)
	}

	_, resp := s.do(t, http.MethodGet, "/api/v1/subscriptions/"+addrA, "")
	var a SubscriptionsResponse
	dataAs(t, resp, &a)
	if len(a.Endpoints) != 0 {
		t.Errorf("A still has endpoints: %+v", a.Endpoints)
	}

	_, resp = s.do(t, http.MethodGet, "/api/v1/subscriptions/"+addrB, "")
	var b SubscriptionsResponse
	dataAs(t, resp, &b)
	if len(b.Endpoints) != 1 || b.Endpoints[0].Channel != models.ChannelTimeline {
		t.Errorf("B endpoints = %+v", b.Endpoints)
	}

	if rows, _ := s.store.ListAll(context.Background()); len(rows) != 1 || rows[0].Address != addrB {
		t.Errorf("store rows = %+v, want single row for B", rows)
	}

	if rec := rebind("garbage"); rec.Code != http.StatusBadRequest {
		t.Errorf("rebind to invalid address status = %d, want 400", rec.Code)
	}
}

func TestRouter_ListRejectsInvalidAddress(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixedFeed(models.FeedConnected))

	rec, resp := s.do(t, http.MethodGet, "/api/v1/subscriptions/not-an-address", "")
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("status = %d, error = %+v", rec.Code, resp.Error)
	}
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		feed        FeedStatus
		wantStatus  string
		wantReady   int
		wantFeedStr string
	}{
		{"connected", fixedFeed(models.FeedConnected), "healthy", http.StatusOK, models.FeedConnected.String()},
		{"connecting", fixedFeed(models.FeedConnecting), "degraded", http.StatusServiceUnavailable, models.FeedConnecting.String()},
		{"no feed", nil, "degraded", http.StatusServiceUnavailable, models.FeedDisconnected.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, tt.feed)

			rec, resp := s.do(t, http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("/health status = %d", rec.Code)
			}
			var health HealthStatus
			dataAs(t, resp, &health)
			if health.Status != tt.wantStatus || health.FeedState != tt.wantFeedStr {
				t.Errorf("health = %+v, want status %s feed %s", health, tt.wantStatus, tt.wantFeedStr)
			}
			if len(health.Channels) != 1 {
				t.Errorf("channels = %v", health.Channels)
			}

			rec, _ = s.do(t, http.MethodGet, "/health/ready", "")
			if rec.Code != tt.wantReady {
				t.Errorf("/health/ready status = %d, want %d", rec.Code, tt.wantReady)
			}

			rec, _ = s.do(t, http.MethodGet, "/health/live", "")
			if rec.Code != http.StatusOK {
				t.Errorf("/health/live status = %d", rec.Code)
			}
		})
	}
}

func TestRouter_MetricsAndFallbacks(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixedFeed(models.FeedConnected))

	// Generate at least one API sample.
	s.do(t, http.MethodGet, "/api/v1/subscriptions/"+addrA, "")

	rec, _ := s.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ripplenotify_api_requests_total") {
		t.Error("/metrics does not expose ripplenotify_api_requests_total")
	}

	rec, resp := s.do(t, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: status = %d, error = %+v", rec.Code, resp.Error)
	}

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/subscriptions", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d, want 405", rec.Code)
	}
}

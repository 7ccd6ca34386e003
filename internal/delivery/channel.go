// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

// Package delivery provides the notification channel adapters.
//
// Each adapter turns a models.Intent into one outbound call:
//   - push-service: Pushover-style form POST with title, message, priority and sound
//   - mobile-push / mobile-push-sandbox: APNs HTTP/2 provider API with a signed token
//   - timeline-api: timeline card insert authorized with the endpoint's OAuth token
//
// Every adapter reports a Result describing success or failure. Adapters never
// retry; a failed attempt is reported once and the caller logs it. Guard wraps
// an adapter with a per-channel rate limiter and circuit breaker.
//
// Security:
//   - Endpoint keys and credentials are never logged unredacted
//   - Response bodies are read through a size limit
package delivery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// ErrUnknownChannel is returned when no adapter is registered for a channel.
var ErrUnknownChannel = errors.New("unknown delivery channel")

// Channel defines the interface for notification delivery adapters.
type Channel interface {
	// Name returns the channel this adapter serves.
	Name() models.Channel

	// Validate checks the structural shape of an endpoint key.
	Validate(endpointKey string) error

	// Send performs exactly one delivery attempt. Delivery failures are
	// reported in the Result; the error return is reserved for programming
	// errors such as a nil intent.
	Send(ctx context.Context, params *SendParams) (*Result, error)
}

// SendParams contains everything needed for one delivery attempt.
type SendParams struct {
	// Endpoint is the target channel and key.
	Endpoint models.Endpoint

	// Intent is the notification to render.
	Intent *models.Intent

	// DeliveryID identifies the attempt in logs and, where the API accepts
	// one, in the outbound request.
	DeliveryID string
}

// Result contains the outcome of a delivery attempt.
type Result struct {
	// Success indicates if delivery was successful.
	Success bool

	// Channel is the channel the attempt was made on.
	Channel models.Channel

	// Recipient is the redacted endpoint key.
	Recipient string

	// DeliveredAt is when delivery succeeded.
	DeliveredAt *time.Time

	// ErrorMessage contains error details if failed.
	ErrorMessage string

	// ErrorCode is a machine-readable error code.
	ErrorCode string

	// IsTransient indicates the failure was caused by the remote side or the
	// network rather than by the request itself.
	IsTransient bool

	// RetryAfter is the remote's requested backoff, when supplied.
	RetryAfter *time.Duration

	// ExternalID is the message ID returned by the service.
	ExternalID string

	// ResponseCode is the HTTP response code.
	ResponseCode int
}

// Error codes for delivery failures.
const (
	ErrorCodeInvalidConfig     = "INVALID_CONFIG"
	ErrorCodeInvalidRecipient  = "INVALID_RECIPIENT"
	ErrorCodeConnectionFailed  = "CONNECTION_FAILED"
	ErrorCodeAuthFailed        = "AUTH_FAILED"
	ErrorCodeRateLimited       = "RATE_LIMITED"
	ErrorCodeContentTooLarge   = "CONTENT_TOO_LARGE"
	ErrorCodeRecipientNotFound = "RECIPIENT_NOT_FOUND"
	ErrorCodeServerError       = "SERVER_ERROR"
	ErrorCodeTimeout           = "TIMEOUT"
	ErrorCodeCircuitOpen       = "CIRCUIT_OPEN"
	ErrorCodeUnknown           = "UNKNOWN"
)

// newResult starts a Result for the given params.
func newResult(params *SendParams) *Result {
	return &Result{
		Channel:   params.Endpoint.Channel,
		Recipient: models.RedactKey(params.Endpoint.EndpointKey),
	}
}

func (r *Result) succeed(externalID string) {
	now := time.Now()
	r.Success = true
	r.DeliveredAt = &now
	r.ExternalID = externalID
}

func (r *Result) fail(code, message string) {
	r.Success = false
	r.ErrorCode = code
	r.ErrorMessage = message
	r.IsTransient = isTransientCode(code)
}

// Registry maps each channel to its adapter.
type Registry struct {
	channels map[models.Channel]Channel
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[models.Channel]Channel)}
}

// Register adds an adapter under its own Name, replacing any previous one.
func (r *Registry) Register(channel Channel) {
	r.channels[channel.Name()] = channel
}

// Get retrieves the adapter for a channel.
func (r *Registry) Get(name models.Channel) (Channel, bool) {
	channel, ok := r.channels[name]
	return channel, ok
}

// List returns all registered channel names in sorted order.
func (r *Registry) List() []models.Channel {
	names := make([]models.Channel, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ValidateEndpoint checks an endpoint key against its channel's adapter.
func (r *Registry) ValidateEndpoint(ep models.Endpoint) error {
	ch, ok := r.Get(ep.Channel)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, ep.Channel)
	}
	return ch.Validate(ep.EndpointKey)
}

// TruncateContent truncates content to maxLen bytes with an ellipsis,
// never splitting a multi-byte character.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return content[:maxLen]
	}
	cut := maxLen - 3
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

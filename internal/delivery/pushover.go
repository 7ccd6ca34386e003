// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// Pushover message limits.
const (
	pushoverMaxTitle   = 250
	pushoverMaxMessage = 1024
	pushoverMaxUserKey = 64
)

// PushoverConfig configures the push-service adapter.
type PushoverConfig struct {
	// AppToken is the application API token.
	AppToken string

	// BaseURL defaults to https://api.pushover.net.
	BaseURL string

	// Priority is the message priority (-2 to 1; emergency priority 2 is not used).
	Priority int

	// Sound is the notification sound for received payments. Sent payments
	// use the device default.
	Sound string

	// TxURLFormat, when set, is formatted with the transaction hash and
	// attached as the supplementary URL.
	TxURLFormat string

	// Timeout bounds each outbound request.
	Timeout time.Duration
}

// PushoverChannel implements push-service delivery.
type PushoverChannel struct {
	client *http.Client
	cfg    PushoverConfig
}

// pushoverResponse is the API response body.
type pushoverResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors,omitempty"`
}

// NewPushoverChannel creates a push-service delivery channel.
func NewPushoverChannel(cfg PushoverConfig) *PushoverChannel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.pushover.net"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PushoverChannel{
		client: newHTTPClient(cfg.Timeout),
		cfg:    cfg,
	}
}

// Name returns the channel identifier.
func (c *PushoverChannel) Name() models.Channel {
	return models.ChannelPushService
}

// Validate checks the user key shape.
func (c *PushoverChannel) Validate(userKey string) error {
	if userKey == "" {
		return fmt.Errorf("push-service user key is required")
	}
	if len(userKey) > pushoverMaxUserKey {
		return fmt.Errorf("push-service user key too long")
	}
	if strings.ContainsAny(userKey, " \t\r\n") {
		return fmt.Errorf("push-service user key contains whitespace")
	}
	return nil
}

// Send delivers the intent as a push-service message.
func (c *PushoverChannel) Send(ctx context.Context, params *SendParams) (*Result, error) {
	if params == nil || params.Intent == nil {
		return nil, fmt.Errorf("pushover: nil intent")
	}
	result := newResult(params)

	if c.cfg.AppToken == "" {
		result.fail(ErrorCodeInvalidConfig, "push-service application token is not configured")
		return result, nil
	}
	if err := c.Validate(params.Endpoint.EndpointKey); err != nil {
		result.fail(ErrorCodeInvalidRecipient, err.Error())
		return result, nil
	}

	form := c.buildForm(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/1/messages.json",
		strings.NewReader(form.Encode()))
	if err != nil {
		result.fail(ErrorCodeUnknown, fmt.Sprintf("failed to create request: %v", err))
		return result, nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		result.fail(classifyHTTPError(err), fmt.Sprintf("failed to send message: %v", err))
		return result, nil
	}
	defer resp.Body.Close()

	result.ResponseCode = resp.StatusCode
	body := readBody(resp)

	var apiResp pushoverResponse
	_ = json.Unmarshal(body, &apiResp)

	if resp.StatusCode == http.StatusOK && apiResp.Status == 1 {
		result.succeed(apiResp.Request)
		return result, nil
	}

	msg := strings.Join(apiResp.Errors, "; ")
	if msg == "" {
		msg = fmt.Sprintf("push-service returned status %d", resp.StatusCode)
	}
	code := classifyHTTPStatusCode(resp.StatusCode)
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(msg, "token") {
		code = ErrorCodeAuthFailed
	}
	result.fail(code, msg)
	result.RetryAfter = parseRetryAfter(resp)
	return result, nil
}

// buildForm constructs the message form fields.
func (c *PushoverChannel) buildForm(params *SendParams) url.Values {
	intent := params.Intent
	form := url.Values{}
	form.Set("token", c.cfg.AppToken)
	form.Set("user", params.Endpoint.EndpointKey)
	form.Set("title", TruncateContent(intent.Title, pushoverMaxTitle))
	form.Set("message", TruncateContent(intent.Message, pushoverMaxMessage))
	form.Set("priority", strconv.Itoa(c.cfg.Priority))
	if intent.Kind == models.IntentPaymentIn && c.cfg.Sound != "" {
		form.Set("sound", c.cfg.Sound)
	}
	if c.cfg.TxURLFormat != "" && intent.Hash != "" {
		form.Set("url", fmt.Sprintf(c.cfg.TxURLFormat, intent.Hash))
		form.Set("url_title", "View transaction")
	}
	return form
}

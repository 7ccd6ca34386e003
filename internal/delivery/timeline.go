// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/tomtom215/ripplenotify/internal/models"
)

const timelineMaxText = 1000

// TokenSourceProvider resolves credentials for a stored access token,
// refreshing them when possible.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, accessToken string) oauth2.TokenSource
}

// TimelineConfig configures the timeline-api adapter.
type TimelineConfig struct {
	// BaseURL defaults to https://www.googleapis.com.
	BaseURL string

	// Timeout bounds each outbound request.
	Timeout time.Duration
}

// TimelineChannel implements timeline-api delivery.
type TimelineChannel struct {
	client  *http.Client
	baseURL string
	tokens  TokenSourceProvider
}

// TimelineItem is the card inserted into the timeline.
type TimelineItem struct {
	Text         string             `json:"text"`
	MenuItems    []TimelineMenuItem `json:"menuItems"`
	Notification *TimelineNotify    `json:"notification,omitempty"`
	SourceItemID string             `json:"sourceItemId,omitempty"`
}

// TimelineMenuItem is an action offered on a card.
type TimelineMenuItem struct {
	Action string `json:"action"`
}

// TimelineNotify requests an audible notification for the card.
type TimelineNotify struct {
	Level string `json:"level"`
}

type timelineResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewTimelineChannel creates a timeline-api delivery channel.
func NewTimelineChannel(cfg TimelineConfig, tokens TokenSourceProvider) *TimelineChannel {
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.googleapis.com"
	}
	return &TimelineChannel{
		client:  newHTTPClient(cfg.Timeout),
		baseURL: strings.TrimRight(base, "/"),
		tokens:  tokens,
	}
}

// Name returns the channel identifier.
func (c *TimelineChannel) Name() models.Channel {
	return models.ChannelTimeline
}

// Validate checks the access token shape.
func (c *TimelineChannel) Validate(accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("timeline access token is required")
	}
	if strings.ContainsAny(accessToken, " \t\r\n") {
		return fmt.Errorf("timeline access token contains whitespace")
	}
	return nil
}

// Send inserts a timeline card with a delete action.
func (c *TimelineChannel) Send(ctx context.Context, params *SendParams) (*Result, error) {
	if params == nil || params.Intent == nil {
		return nil, fmt.Errorf("timeline: nil intent")
	}
	result := newResult(params)

	if err := c.Validate(params.Endpoint.EndpointKey); err != nil {
		result.fail(ErrorCodeInvalidRecipient, err.Error())
		return result, nil
	}

	payload, err := json.Marshal(c.buildItem(params))
	if err != nil {
		result.fail(ErrorCodeUnknown, fmt.Sprintf("failed to marshal item: %v", err))
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mirror/v1/timeline", bytes.NewReader(payload))
	if err != nil {
		result.fail(ErrorCodeUnknown, fmt.Sprintf("failed to create request: %v", err))
		return result, nil
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: c.client.Timeout,
		Transport: &oauth2.Transport{
			Source: c.tokens.TokenSource(ctx, params.Endpoint.EndpointKey),
			Base:   c.client.Transport,
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			result.fail(ErrorCodeAuthFailed, fmt.Sprintf("token refresh failed: %v", retrieveErr))
			return result, nil
		}
		result.fail(classifyHTTPError(err), fmt.Sprintf("failed to insert item: %v", err))
		return result, nil
	}
	defer resp.Body.Close()

	result.ResponseCode = resp.StatusCode
	var apiResp timelineResponse
	_ = json.Unmarshal(readBody(resp), &apiResp)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.succeed(apiResp.ID)
		return result, nil
	}

	msg := fmt.Sprintf("timeline returned status %d", resp.StatusCode)
	if apiResp.Error != nil && apiResp.Error.Message != "" {
		msg = apiResp.Error.Message
	}
	result.fail(classifyHTTPStatusCode(resp.StatusCode), msg)
	result.RetryAfter = parseRetryAfter(resp)
	return result, nil
}

// buildItem renders the intent as a timeline card.
func (c *TimelineChannel) buildItem(params *SendParams) TimelineItem {
	return TimelineItem{
		Text:         TruncateContent(params.Intent.Message, timelineMaxText),
		MenuItems:    []TimelineMenuItem{{Action: "DELETE"}},
		Notification: &TimelineNotify{Level: "DEFAULT"},
		SourceItemID: params.Intent.Hash,
	}
}

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package delivery

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/ripplenotify/internal/models"
)

const (
	apnsProductionURL = "https://api.push.apple.com"
	apnsSandboxURL    = "https://api.sandbox.push.apple.com"

	// apnsTokenLifetime stays under the gateway's one hour limit.
	apnsTokenLifetime = 50 * time.Minute

	apnsDeviceTokenLength = 64
	apnsMaxAlert          = 180
)

// Alert glyphs per intent kind.
var apnsGlyphs = map[models.IntentKind]string{
	models.IntentPaymentIn:  "\U0001F4B0", // money bag
	models.IntentPaymentOut: "\U0001F4B8", // money with wings
}

// APNsConfig configures the mobile-push adapters.
type APNsConfig struct {
	// KeyID and TeamID identify the signing key.
	KeyID  string
	TeamID string

	// SigningKey is the ES256 provider key.
	SigningKey *ecdsa.PrivateKey

	// Topic is the app bundle identifier.
	Topic string

	// Sound is the alert sound name. Default: "default".
	Sound string

	// TTL sets apns-expiration relative to send time. Default: 1h.
	TTL time.Duration

	// ProductionURL and SandboxURL override the gateway hosts.
	ProductionURL string
	SandboxURL    string

	// Timeout bounds each outbound request.
	Timeout time.Duration
}

// APNsChannel implements mobile-push delivery for one gateway.
type APNsChannel struct {
	client  *http.Client
	cfg     APNsConfig
	sandbox bool
	baseURL string
	now     func() time.Time

	tokenMu     sync.Mutex
	token       string
	tokenIssued time.Time

	badgeMu sync.Mutex
	badges  map[string]int
}

type apnsPayload struct {
	APS  apnsAPS `json:"aps"`
	Hash string  `json:"tx_hash,omitempty"`
	Kind string  `json:"kind,omitempty"`
}

type apnsAPS struct {
	Alert string `json:"alert"`
	Badge int    `json:"badge"`
	Sound string `json:"sound,omitempty"`
}

type apnsErrorResponse struct {
	Reason string `json:"reason"`
}

// NewAPNsChannel creates a mobile-push channel. When sandbox is true the
// channel serves mobile-push-sandbox and targets the development gateway.
func NewAPNsChannel(cfg APNsConfig, sandbox bool) (*APNsChannel, error) {
	if cfg.SigningKey == nil {
		return nil, fmt.Errorf("apns: signing key is required")
	}
	if cfg.KeyID == "" || cfg.TeamID == "" {
		return nil, fmt.Errorf("apns: key ID and team ID are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("apns: topic is required")
	}
	if cfg.Sound == "" {
		cfg.Sound = "default"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	base := cfg.ProductionURL
	if base == "" {
		base = apnsProductionURL
	}
	if sandbox {
		base = cfg.SandboxURL
		if base == "" {
			base = apnsSandboxURL
		}
	}

	return &APNsChannel{
		client:  newHTTPClient(cfg.Timeout),
		cfg:     cfg,
		sandbox: sandbox,
		baseURL: strings.TrimRight(base, "/"),
		now:     time.Now,
		badges:  make(map[string]int),
	}, nil
}

// LoadAPNsKey parses a PEM encoded .p8 provider key.
func LoadAPNsKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse apns key: %w", err)
	}
	return key, nil
}

// Name returns the channel identifier.
func (c *APNsChannel) Name() models.Channel {
	if c.sandbox {
		return models.ChannelMobilePushSandbox
	}
	return models.ChannelMobilePush
}

// Validate checks that the key is a 64 character hex device token.
func (c *APNsChannel) Validate(deviceToken string) error {
	if len(deviceToken) != apnsDeviceTokenLength {
		return fmt.Errorf("device token must be %d hex characters", apnsDeviceTokenLength)
	}
	if _, err := hex.DecodeString(deviceToken); err != nil {
		return fmt.Errorf("device token is not hex: %w", err)
	}
	return nil
}

// Send delivers the intent as an alert notification.
func (c *APNsChannel) Send(ctx context.Context, params *SendParams) (*Result, error) {
	if params == nil || params.Intent == nil {
		return nil, fmt.Errorf("apns: nil intent")
	}
	result := newResult(params)
	deviceToken := strings.ToLower(params.Endpoint.EndpointKey)

	if err := c.Validate(deviceToken); err != nil {
		result.fail(ErrorCodeInvalidRecipient, err.Error())
		return result, nil
	}

	bearer, err := c.providerToken()
	if err != nil {
		result.fail(ErrorCodeInvalidConfig, err.Error())
		return result, nil
	}

	payload, err := json.Marshal(c.buildPayload(params.Intent, deviceToken))
	if err != nil {
		result.fail(ErrorCodeUnknown, fmt.Sprintf("failed to marshal payload: %v", err))
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/3/device/"+deviceToken, bytes.NewReader(payload))
	if err != nil {
		result.fail(ErrorCodeUnknown, fmt.Sprintf("failed to create request: %v", err))
		return result, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "bearer "+bearer)
	req.Header.Set("apns-topic", c.cfg.Topic)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")
	req.Header.Set("apns-expiration", strconv.FormatInt(c.now().Add(c.cfg.TTL).Unix(), 10))
	if params.DeliveryID != "" {
		req.Header.Set("apns-id", params.DeliveryID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		result.fail(classifyHTTPError(err), fmt.Sprintf("failed to send notification: %v", err))
		return result, nil
	}
	defer resp.Body.Close()

	result.ResponseCode = resp.StatusCode
	body := readBody(resp)

	if resp.StatusCode == http.StatusOK {
		result.succeed(resp.Header.Get("apns-id"))
		return result, nil
	}

	var apiErr apnsErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	if apiErr.Reason == "ExpiredProviderToken" {
		c.resetProviderToken()
	}
	result.fail(classifyAPNsError(resp.StatusCode, apiErr.Reason),
		fmt.Sprintf("apns returned %d: %s", resp.StatusCode, apiErr.Reason))
	result.RetryAfter = parseRetryAfter(resp)
	return result, nil
}

// buildPayload renders the alert with a glyph for the intent kind.
func (c *APNsChannel) buildPayload(intent *models.Intent, deviceToken string) apnsPayload {
	alert := intent.Message
	if glyph, ok := apnsGlyphs[intent.Kind]; ok {
		alert = glyph + " " + alert
	}
	return apnsPayload{
		APS: apnsAPS{
			Alert: TruncateContent(alert, apnsMaxAlert),
			Badge: c.nextBadge(deviceToken),
			Sound: c.cfg.Sound,
		},
		Hash: intent.Hash,
		Kind: string(intent.Kind),
	}
}

// nextBadge increments the per-device unread counter.
func (c *APNsChannel) nextBadge(deviceToken string) int {
	c.badgeMu.Lock()
	defer c.badgeMu.Unlock()
	c.badges[deviceToken]++
	return c.badges[deviceToken]
}

// providerToken returns a cached ES256 provider token, signing a new one
// once the cached token is older than apnsTokenLifetime.
func (c *APNsChannel) providerToken() (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	now := c.now()
	if c.token != "" && now.Sub(c.tokenIssued) < apnsTokenLifetime {
		return c.token, nil
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": c.cfg.TeamID,
		"iat": now.Unix(),
	})
	tok.Header["kid"] = c.cfg.KeyID

	signed, err := tok.SignedString(c.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign provider token: %w", err)
	}
	c.token = signed
	c.tokenIssued = now
	return signed, nil
}

func (c *APNsChannel) resetProviderToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenMu.Unlock()
}

// classifyAPNsError maps a gateway status and reason to an error code.
func classifyAPNsError(status int, reason string) string {
	switch reason {
	case "BadDeviceToken", "DeviceTokenNotForTopic":
		return ErrorCodeInvalidRecipient
	case "Unregistered":
		return ErrorCodeRecipientNotFound
	case "PayloadTooLarge":
		return ErrorCodeContentTooLarge
	case "InvalidProviderToken", "ExpiredProviderToken", "MissingProviderToken", "BadTopic", "TopicDisallowed":
		return ErrorCodeAuthFailed
	case "TooManyRequests", "TooManyProviderTokenUpdates":
		return ErrorCodeRateLimited
	}
	return classifyHTTPStatusCode(status)
}

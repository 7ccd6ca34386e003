// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

// Package auth supplies OAuth2 credentials for channels whose endpoint key is
// a user access token.
//
// The timeline channel stores only the access token handed over at
// registration. When the token was registered together with a refresh token,
// Provider returns a TokenSource that refreshes it transparently; otherwise the
// access token is used as-is until the remote rejects it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when no client credentials are configured.
var ErrNotConfigured = errors.New("oauth client is not configured")

// Config holds the OAuth2 client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string

	// StateTTL bounds the consent round trip. Default: DefaultStateTTL.
	StateTTL time.Duration
}

// Provider builds token sources for stored access tokens.
type Provider struct {
	oauth  *oauth2.Config
	states *stateStore

	mu      sync.RWMutex
	refresh map[string]*oauth2.Token
}

// NewProvider creates a provider. Endpoints default to Google's, which serve
// the timeline API.
func NewProvider(cfg Config) *Provider {
	authURL, tokenURL := cfg.AuthURL, cfg.TokenURL
	if authURL == "" {
		authURL = "https://accounts.google.com/o/oauth2/auth"
	}
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"https://www.googleapis.com/auth/glass.timeline"}
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		states:  newStateStore(cfg.StateTTL),
		refresh: make(map[string]*oauth2.Token),
	}
}

// Remember associates a full token (with refresh token and expiry) with the
// access token used as endpoint key.
func (p *Provider) Remember(tok *oauth2.Token) {
	if tok == nil || tok.AccessToken == "" {
		return
	}
	p.mu.Lock()
	p.refresh[tok.AccessToken] = tok
	p.mu.Unlock()
}

// Forget drops refresh state for an access token.
func (p *Provider) Forget(accessToken string) {
	p.mu.Lock()
	delete(p.refresh, accessToken)
	p.mu.Unlock()
}

// TokenSource returns credentials for the given access token. The context
// carries the HTTP client used for refresh requests (oauth2.HTTPClient).
func (p *Provider) TokenSource(ctx context.Context, accessToken string) oauth2.TokenSource {
	p.mu.RLock()
	full, ok := p.refresh[accessToken]
	p.mu.RUnlock()

	if ok && full.RefreshToken != "" && p.oauth.ClientID != "" {
		return p.oauth.TokenSource(ctx, full)
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
}

// AuthCodeURL returns the consent page URL for registering a new timeline endpoint.
func (p *Provider) AuthCodeURL(state string) (string, error) {
	if p.oauth.ClientID == "" {
		return "", ErrNotConfigured
	}
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and remembers it.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if p.oauth.ClientID == "" {
		return nil, ErrNotConfigured
	}
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	p.Remember(tok)
	return tok, nil
}

// Begin starts a consent round trip and returns the URL to send the user to.
func (p *Provider) Begin() (string, error) {
	if p.oauth.ClientID == "" {
		return "", ErrNotConfigured
	}
	state, err := p.states.issue()
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state)
}

// Complete finishes a round trip started by Begin: it consumes state and
// exchanges code. The returned token is remembered for refresh.
func (p *Provider) Complete(ctx context.Context, state, code string) (*oauth2.Token, error) {
	if p.oauth.ClientID == "" {
		return nil, ErrNotConfigured
	}
	if err := p.states.consume(state); err != nil {
		return nil, err
	}
	tok, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenSource_Static(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{})
	tok, err := p.TokenSource(context.Background(), "access-1").Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "access-1" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}
}

func TestTokenSource_Refreshes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.Form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %q, want refresh-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewProvider(Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
	p.Remember(&oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Minute),
	})

	tok, err := p.TokenSource(context.Background(), "access-1").Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "access-2" {
		t.Errorf("AccessToken = %q, want refreshed access-2", tok.AccessToken)
	}

	p.Forget("access-1")
	tok, _ = p.TokenSource(context.Background(), "access-1").Token()
	if tok.AccessToken != "access-1" {
		t.Errorf("after Forget AccessToken = %q, want access-1", tok.AccessToken)
	}
}

func TestAuthCodeURL(t *testing.T) {
	t.Parallel()

	if _, err := NewProvider(Config{}).AuthCodeURL("s"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("AuthCodeURL() error = %v, want ErrNotConfigured", err)
	}

	u, err := NewProvider(Config{ClientID: "id", RedirectURL: "https://example.com/cb"}).AuthCodeURL("state-1")
	if err != nil {
		t.Fatalf("AuthCodeURL() error = %v", err)
	}
	for _, want := range []string{"client_id=id", "state=state-1", "access_type=offline"} {
		if !strings.Contains(u, want) {
			t.Errorf("AuthCodeURL() = %q, missing %q", u, want)
		}
	}
}

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if r.Form.Get("code") != "code-1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func stateFrom(t *testing.T, consentURL string) string {
	t.Helper()
	u, err := url.Parse(consentURL)
	if err != nil {
		t.Fatalf("parse consent URL: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatalf("consent URL %q has no state", consentURL)
	}
	return state
}

func TestBeginComplete(t *testing.T) {
	t.Parallel()

	server := tokenServer(t)
	p := NewProvider(Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})

	consentURL, err := p.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	state := stateFrom(t, consentURL)

	tok, err := p.Complete(context.Background(), state, "code-1")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if tok.AccessToken != "access-1" || tok.RefreshToken != "refresh-1" {
		t.Errorf("token = %+v", tok)
	}

	p.mu.RLock()
	_, remembered := p.refresh["access-1"]
	p.mu.RUnlock()
	if !remembered {
		t.Error("exchanged token was not remembered")
	}

	// States are single use.
	if _, err := p.Complete(context.Background(), state, "code-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("replayed Complete() error = %v, want ErrInvalidState", err)
	}
}

func TestComplete_Rejections(t *testing.T) {
	t.Parallel()

	server := tokenServer(t)

	tests := []struct {
		name    string
		state   func(p *Provider) string
		code    string
		wantErr error
	}{
		{
			name:    "unknown state",
			state:   func(*Provider) string { return "forged" },
			code:    "code-1",
			wantErr: ErrInvalidState,
		},
		{
			name: "expired state",
			state: func(p *Provider) string {
				u, _ := p.Begin()
				p.states.now = func() time.Time { return time.Now().Add(time.Hour) }
				return stateFrom(t, u)
			},
			code:    "code-1",
			wantErr: ErrInvalidState,
		},
		{
			name: "bad code",
			state: func(p *Provider) string {
				u, _ := p.Begin()
				return stateFrom(t, u)
			},
			code: "code-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewProvider(Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
			_, err := p.Complete(context.Background(), tt.state(p), tt.code)
			if err == nil {
				t.Fatal("Complete() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewProvider(Config{}).Begin(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Begin() unconfigured error = %v, want ErrNotConfigured", err)
	}
}

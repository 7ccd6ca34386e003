// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/ledger"
	"github.com/tomtom215/ripplenotify/internal/metrics"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// ErrNoServers is returned when the client is configured without servers.
var ErrNoServers = errors.New("no ledger servers configured")

// errSubscribeRejected marks a subscribe command answered with an error.
var errSubscribeRejected = errors.New("subscribe rejected")

// Observer receives connection state transitions.
type Observer interface {
	OnStateChange(from, to models.FeedState)
}

// Config contains configuration for the ledger feed client.
type Config struct {
	// Servers are websocket URLs, tried in order and rotated on reconnect.
	Servers []string

	// ReconnectDelay is the first backoff delay after a dropped connection.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration

	// PingInterval is the websocket ping period.
	PingInterval time.Duration

	// ReadTimeout closes a connection that has been silent this long.
	ReadTimeout time.Duration

	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns production defaults pointing at the public servers.
func DefaultConfig() Config {
	return Config{
		Servers:           []string{"wss://xrplcluster.com", "wss://s1.ripple.com", "wss://s2.ripple.com"},
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// Client is a reconnecting rippled websocket subscriber.
type Client struct {
	cfg      Config
	sink     chan<- models.TransactionEvent
	observer Observer
	logger   zerolog.Logger

	stateMu sync.Mutex
	state   models.FeedState

	requestID atomic.Int64
}

// NewClient creates a ledger feed client. Decoded events are written to sink;
// observer may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(cfg Config, sink chan<- models.TransactionEvent, observer Observer, logger zerolog.Logger) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	if sink == nil {
		return nil, errors.New("feed sink is required")
	}

	def := DefaultConfig()
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = max(def.MaxReconnectDelay, cfg.ReconnectDelay)
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}

	return &Client{
		cfg:      cfg,
		sink:     sink,
		observer: observer,
		logger:   logger.With().Str("component", "ledger-feed").Logger(),
		state:    models.FeedDisconnected,
	}, nil
}

// State returns the current connection state.
func (c *Client) State() models.FeedState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Client) setState(to models.FeedState) {
	c.stateMu.Lock()
	from := c.state
	c.state = to
	c.stateMu.Unlock()

	if from == to {
		return
	}
	if c.observer != nil {
		c.observer.OnStateChange(from, to)
	}
}

// Serve connects and reconnects until ctx is cancelled. It implements
// suture.Service; connection failures are handled internally and never
// returned.
func (c *Client) Serve(ctx context.Context) error {
	defer c.setState(models.FeedDisconnected)

	delay := c.cfg.ReconnectDelay
	for attempt := 0; ; attempt++ {
		server := c.cfg.Servers[attempt%len(c.cfg.Servers)]

		c.setState(models.FeedConnecting)
		err := c.session(ctx, server)
		connected := c.State() == models.FeedConnected
		c.setState(models.FeedDisconnected)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			delay = c.cfg.ReconnectDelay
		}

		metrics.FeedReconnects.Inc()
		c.logger.Warn().
			Err(err).
			Str("server", server).
			Dur("retry_in", delay).
			Msg("Ledger connection lost, reconnecting")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (c *Client) String() string {
	return "ledger-feed"
}

// session runs one connection until it fails. The state moves to connected
// once the server acknowledges the subscription.
func (c *Client) session(ctx context.Context, server string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout:  c.cfg.HandshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, server, nil)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug().Err(cerr).Msg("Failed to close handshake response body")
		}
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	// cancel must run first: the closer and ping goroutines exit on sessionCtx.
	defer func() {
		cancel()
		wg.Wait()
	}()

	// Closing the connection is what unblocks ReadMessage on shutdown.
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-sessionCtx.Done()
		writeMu.Lock()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		writeMu.Unlock()
		_ = conn.Close()
	}()

	req, err := json.Marshal(ledger.NewSubscribeRequest(int(c.requestID.Add(1))))
	if err != nil {
		return fmt.Errorf("encode subscribe request: %w", err)
	}
	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, req)
	writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}
	c.logger.Debug().Str("server", server).Msg("Subscribe request sent")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(sessionCtx, conn, &writeMu)
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if sessionCtx.Err() != nil {
				return sessionCtx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		if err := c.handleMessage(sessionCtx, data); err != nil {
			return err
		}
	}
}

// pingLoop sends websocket pings until ctx is done.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			writeMu.Unlock()
			if err != nil {
				c.logger.Debug().Err(err).Msg("Keep-alive ping failed")
				return
			}
		}
	}
}

// handleMessage decodes one stream message and forwards transactions.
// Only a rejected subscription or a cancelled context ends the session.
func (c *Client) handleMessage(ctx context.Context, data []byte) error {
	var msg ledger.StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.RecordFeedMessage("invalid")
		c.logger.Warn().Err(err).Msg("Failed to decode stream message")
		return nil
	}
	metrics.RecordFeedMessage(msg.Type)

	switch msg.Type {
	case ledger.MessageTypeTransaction:
		return c.forward(ctx, &msg)

	case ledger.MessageTypeResponse:
		if msg.Status == "error" || msg.Error != "" {
			return fmt.Errorf("%w: %s %s", errSubscribeRejected, msg.Error, msg.ErrorMsg)
		}
		if c.State() != models.FeedConnected {
			c.setState(models.FeedConnected)
			c.logger.Info().Msg("Subscribed to ledger transactions")
		}

	case ledger.MessageTypeLedgerClosed:
		c.logger.Trace().Uint64("ledger_index", msg.LedgerIndex).Msg("Ledger closed")

	default:
		c.logger.Debug().Str("type", msg.Type).Msg("Ignoring stream message")
	}
	return nil
}

// forward writes a validated transaction to the sink.
func (c *Client) forward(ctx context.Context, msg *ledger.StreamMessage) error {
	if !msg.Validated {
		return nil
	}

	ev, err := msg.Event()
	if err != nil {
		c.logger.Warn().Err(err).Str("tx_hash", msg.Hash).Msg("Failed to decode transaction")
		return nil
	}

	select {
	case c.sink <- *ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

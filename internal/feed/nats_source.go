// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

//go:build nats

package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/ledger"
	"github.com/tomtom215/ripplenotify/internal/logging"
	"github.com/tomtom215/ripplenotify/internal/metrics"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// NATSSource consumes rippled stream messages from a JetStream subject.
type NATSSource struct {
	cfg      NATSConfig
	sink     chan<- models.TransactionEvent
	observer Observer
	logger   zerolog.Logger
	wmLogger watermill.LoggerAdapter

	stateMu sync.Mutex
	state   models.FeedState
}

// NewNATSSource creates a broker-fed transaction source.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewNATSSource(cfg NATSConfig, sink chan<- models.TransactionEvent, observer Observer, logger zerolog.Logger) (*NATSSource, error) {
	if cfg.URL == "" || cfg.Subject == "" {
		return nil, errors.New("nats url and subject are required")
	}
	if sink == nil {
		return nil, errors.New("feed sink is required")
	}

	logger = logger.With().Str("component", "nats-feed").Logger()
	return &NATSSource{
		cfg:      cfg,
		sink:     sink,
		observer: observer,
		logger:   logger,
		wmLogger: logging.NewWatermillLogger(logger),
		state:    models.FeedDisconnected,
	}, nil
}

func (s *NATSSource) setState(to models.FeedState) {
	s.stateMu.Lock()
	from := s.state
	s.state = to
	s.stateMu.Unlock()

	if from != to && s.observer != nil {
		s.observer.OnStateChange(from, to)
	}
}

// Serve subscribes and forwards transactions until ctx is cancelled.
// Errors are returned so the supervisor restarts the source.
func (s *NATSSource) Serve(ctx context.Context) error {
	s.setState(models.FeedConnecting)
	defer s.setState(models.FeedDisconnected)

	sub, err := s.newSubscriber()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("Failed to close NATS subscriber")
		}
	}()

	messages, err := sub.Subscribe(ctx, s.cfg.Subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Subject, err)
	}

	s.setState(models.FeedConnected)
	s.logger.Info().Str("subject", s.cfg.Subject).Msg("Consuming ledger transactions from NATS")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("nats subscription closed")
			}
			if err := s.handle(ctx, msg); err != nil {
				msg.Nack()
				return err
			}
			msg.Ack()
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *NATSSource) String() string {
	return "nats-feed"
}

// handle forwards one message. Undecodable payloads are acknowledged and
// skipped; only cancellation is reported as an error.
func (s *NATSSource) handle(ctx context.Context, msg *message.Message) error {
	ev, err := ledger.ParseStreamMessage(msg.Payload)
	switch {
	case errors.Is(err, ledger.ErrNotTransaction):
		metrics.RecordFeedMessage("other")
		return nil
	case err != nil:
		metrics.RecordFeedMessage("invalid")
		s.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping undecodable ledger message")
		return nil
	}
	metrics.RecordFeedMessage(ledger.MessageTypeTransaction)

	if !ev.Validated {
		return nil
	}

	select {
	case s.sink <- *ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *NATSSource) newSubscriber() (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(s.cfg.MaxReconnects),
		natsgo.ReconnectWait(s.cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				s.setState(models.FeedDisconnected)
				s.logger.Warn().Err(err).Msg("NATS connection lost")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			s.setState(models.FeedConnected)
			s.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(s.cfg.MaxDeliver),
		natsgo.AckWait(s.cfg.AckWait),
		natsgo.DeliverNew(),
	}

	autoProvision := true
	if s.cfg.StreamName != "" {
		subOpts = append(subOpts, natsgo.BindStream(s.cfg.StreamName))
		autoProvision = false
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              s.cfg.URL,
		QueueGroupPrefix: s.cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   s.cfg.AckWait,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision:    autoProvision,
			SubscribeOptions: subOpts,
			DurablePrefix:    s.cfg.DurableName,
		},
	}, s.wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

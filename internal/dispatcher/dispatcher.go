// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ripplenotify/internal/delivery"
	"github.com/tomtom215/ripplenotify/internal/logging"
	"github.com/tomtom215/ripplenotify/internal/metrics"
	"github.com/tomtom215/ripplenotify/internal/models"
)

// Dispatch outcomes recorded per event.
const (
	outcomeDispatched    = "dispatched"
	outcomeDroppedResult = "dropped_result"
	outcomeNoMatch       = "no_subscribers"
)

// Subscribers looks up the endpoints of an address.
type Subscribers interface {
	SubscribersFor(address string) []models.Endpoint
}

// Channels resolves the adapter for a channel.
type Channels interface {
	Get(name models.Channel) (delivery.Channel, bool)
}

// Config contains configuration for the dispatcher.
type Config struct {
	// QueueSize is the capacity of the event queue.
	QueueSize int

	// Workers is the number of delivery goroutines.
	Workers int

	// TaskQueueSize is the number of deliveries that may wait for a worker.
	// Dispatch blocks once it is full.
	TaskQueueSize int

	// DeliveryTimeout bounds a single delivery task. Zero leaves timing to
	// the adapter's HTTP client.
	DeliveryTimeout time.Duration
}

// DefaultConfig returns a default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:     1024,
		Workers:       32,
		TaskQueueSize: 4096,
	}
}

// Outcome is the captured result of one delivery task.
type Outcome struct {
	DeliveryID string
	Address    string
	Endpoint   models.Endpoint
	Intent     models.Intent
	Result     *delivery.Result
	Err        error
	Duration   time.Duration
}

// Succeeded reports whether the delivery was accepted by the remote.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil && o.Result.Success
}

// Dispatcher consumes transaction events and fans out deliveries.
type Dispatcher struct {
	subs     Subscribers
	channels Channels
	cfg      Config
	logger   zerolog.Logger

	events    chan models.TransactionEvent
	tasks     chan task
	startPool sync.Once
	wg        sync.WaitGroup

	hookMu    sync.RWMutex
	onOutcome func(Outcome)

	stateMu   sync.RWMutex
	feedState models.FeedState
}

// New creates a dispatcher.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(subs Subscribers, channels Channels, cfg Config, logger zerolog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.TaskQueueSize <= 0 {
		cfg.TaskQueueSize = def.TaskQueueSize
	}

	return &Dispatcher{
		subs:      subs,
		channels:  channels,
		cfg:       cfg,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
		events:    make(chan models.TransactionEvent, cfg.QueueSize),
		tasks:     make(chan task, cfg.TaskQueueSize),
		feedState: models.FeedDisconnected,
	}
}

// Events returns the queue the ledger feed writes into.
func (d *Dispatcher) Events() chan<- models.TransactionEvent {
	return d.events
}

// Submit queues an event, blocking while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, ev models.TransactionEvent) error {
	select {
	case d.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetOutcomeHook registers a function called with every delivery outcome.
func (d *Dispatcher) SetOutcomeHook(fn func(Outcome)) {
	d.hookMu.Lock()
	d.onOutcome = fn
	d.hookMu.Unlock()
}

// Serve consumes events until ctx is cancelled, then waits for in-flight
// deliveries. It implements suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.logger.Info().
		Int("queue_size", d.cfg.QueueSize).
		Int("workers", d.cfg.Workers).
		Msg("Dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.Wait()
			d.logger.Info().Msg("Dispatcher stopped")
			return ctx.Err()
		case ev := <-d.events:
			metrics.DispatchQueueDepth.Set(float64(len(d.events)))
			d.Dispatch(ctx, &ev)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string {
	return "dispatcher"
}

// Wait blocks until every started delivery task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch processes one event and returns the number of delivery tasks started.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *models.TransactionEvent) int {
	if !ev.IsSuccess() {
		metrics.RecordDispatch(outcomeDroppedResult)
		d.logger.Debug().
			Str("tx_hash", ev.Hash).
			Str("engine_result", ev.ResultCode).
			Msg("Dropped unsuccessful transaction")
		return 0
	}

	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())

	started := 0
	for _, address := range ev.Affected() {
		kind, ok := Classify(ev, address)
		if !ok {
			continue
		}
		endpoints := d.subs.SubscribersFor(address)
		if len(endpoints) == 0 {
			continue
		}

		intent := BuildIntent(ev, address, kind)
		for _, ep := range endpoints {
			if d.spawn(ctx, address, ep, intent) {
				started++
			}
		}
	}

	if started == 0 {
		metrics.RecordDispatch(outcomeNoMatch)
		return 0
	}

	metrics.RecordDispatch(outcomeDispatched)
	logging.Ctx(ctx, d.logger).Debug().
		Str("tx_hash", ev.Hash).
		Int("deliveries", started).
		Msg("Dispatched transaction")
	return started
}

// task is one queued delivery.
type task struct {
	ctx     context.Context
	address string
	ep      models.Endpoint
	intent  models.Intent
}

// spawn queues one delivery for the worker pool. It only blocks while the
// task queue is full, and reports false when ctx ends first.
func (d *Dispatcher) spawn(ctx context.Context, address string, ep models.Endpoint, intent models.Intent) bool {
	d.startPool.Do(func() {
		for i := 0; i < d.cfg.Workers; i++ {
			go d.worker()
		}
	})

	d.wg.Add(1)
	select {
	case d.tasks <- task{ctx: ctx, address: address, ep: ep, intent: intent}:
		return true
	case <-ctx.Done():
		d.wg.Done()
		d.logger.Warn().
			Str("address", address).
			Stringer("endpoint", ep).
			Msg("Delivery not queued before shutdown")
		return false
	}
}

// worker runs queued deliveries for the life of the dispatcher.
func (d *Dispatcher) worker() {
	for t := range d.tasks {
		metrics.DispatchInFlight.Inc()
		d.report(t.ctx, d.deliver(t.ctx, t.address, t.ep, t.intent))
		metrics.DispatchInFlight.Dec()
		d.wg.Done()
	}
}

// deliver performs a single delivery attempt and captures its outcome.
// A panic inside the adapter becomes a failed outcome.
func (d *Dispatcher) deliver(ctx context.Context, address string, ep models.Endpoint, intent models.Intent) (out Outcome) {
	out = Outcome{
		DeliveryID: uuid.New().String(),
		Address:    address,
		Endpoint:   ep,
		Intent:     intent,
	}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if r := recover(); r != nil {
			out.Result = nil
			out.Err = fmt.Errorf("delivery panic: %v", r)
		}
	}()

	ch, ok := d.channels.Get(ep.Channel)
	if !ok {
		out.Err = fmt.Errorf("%w: %s", delivery.ErrUnknownChannel, ep.Channel)
		return out
	}

	sendCtx := ctx
	if d.cfg.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.cfg.DeliveryTimeout)
		defer cancel()
	}

	out.Result, out.Err = ch.Send(sendCtx, &delivery.SendParams{
		Endpoint:   ep,
		Intent:     &intent,
		DeliveryID: out.DeliveryID,
	})
	return out
}

// report logs and records an outcome, then calls the outcome hook.
func (d *Dispatcher) report(ctx context.Context, out Outcome) {
	errorCode := ""
	switch {
	case out.Err != nil:
		errorCode = delivery.ErrorCodeUnknown
	case out.Result != nil && !out.Result.Success:
		errorCode = out.Result.ErrorCode
	}
	metrics.RecordDelivery(string(out.Endpoint.Channel), out.Succeeded(), errorCode, out.Duration)

	logger := logging.Ctx(ctx, d.logger)
	if out.Succeeded() {
		logger.Info().
			Str("delivery_id", out.DeliveryID).
			Str("address", out.Address).
			Stringer("endpoint", out.Endpoint).
			Str("kind", string(out.Intent.Kind)).
			Str("tx_hash", out.Intent.Hash).
			Dur("duration", out.Duration).
			Msg("Notification delivered")
	} else {
		event := logger.Warn().
			Str("delivery_id", out.DeliveryID).
			Str("address", out.Address).
			Stringer("endpoint", out.Endpoint).
			Str("tx_hash", out.Intent.Hash).
			Str("error_code", errorCode)
		if out.Err != nil {
			event = event.Err(out.Err)
		} else if out.Result != nil {
			event = event.Str("error", out.Result.ErrorMessage).Bool("transient", out.Result.IsTransient)
		}
		event.Msg("Notification delivery failed")
	}

	d.hookMu.RLock()
	hook := d.onOutcome
	d.hookMu.RUnlock()
	if hook != nil {
		hook(out)
	}
}

// OnStateChange records a ledger feed connection transition.
func (d *Dispatcher) OnStateChange(from, to models.FeedState) {
	d.stateMu.Lock()
	d.feedState = to
	d.stateMu.Unlock()

	metrics.SetFeedState(int(to))

	switch to {
	case models.FeedConnected:
		d.logger.Info().Str("from", from.String()).Msg("Connected to ledger")
	case models.FeedDisconnected:
		d.logger.Warn().Str("from", from.String()).Msg("Lost connection to ledger")
	default:
		d.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("Ledger feed state changed")
	}
}

// FeedState returns the last observed feed state.
func (d *Dispatcher) FeedState() models.FeedState {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.feedState
}

// Package publisher emits ledger events to a store and optional sinks.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"aircover/pkg/domain"
	"aircover/pkg/platform/ledgerevents"
)

// ErrBufferFull is returned when an async publisher's inbox is saturated.
// The event is dropped; events are operational and must never block callers.
var ErrBufferFull = errors.New("ledger event buffer full")

// Publisher appends events to a store and fans them out to sinks. In sync
// mode (default) Emit persists before returning. With an async buffer, Emit
// enqueues and a background worker persists.
type Publisher struct {
	store  ledgerevents.Store
	sinks  []ledgerevents.Sink
	logger *slog.Logger

	inbox chan ledgerevents.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// inbox capacity. Emit never blocks; events are dropped when the buffer
// is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan ledgerevents.Event, size)
		}
	}
}

// WithSink adds an external delivery sink. Sink failures are logged, never
// returned to emitters.
func WithSink(sink ledgerevents.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

// WithLogger sets the logger used for sink delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher constructs a publisher over the given store.
func NewPublisher(store ledgerevents.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit publishes an event. Zero timestamps and empty event IDs are filled in.
func (p *Publisher) Emit(ctx context.Context, event ledgerevents.Event) error {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			return err
		}
		p.deliver(ctx, event)
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// List returns the stored events for an airline.
func (p *Publisher) List(ctx context.Context, airline domain.Address) ([]ledgerevents.Event, error) {
	return p.store.ListByAirline(ctx, airline)
}

// Close drains any buffered events and closes the sinks.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
		for _, sink := range p.sinks {
			sink.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		ctx := context.Background()
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Warn("ledger event append failed",
				"action", event.Action,
				"airline", event.Airline,
				"error", err,
			)
			continue
		}
		p.deliver(ctx, event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event ledgerevents.Event) {
	for _, sink := range p.sinks {
		if err := sink.Produce(ctx, event); err != nil {
			p.logger.Warn("ledger event sink delivery failed",
				"action", event.Action,
				"airline", event.Airline,
				"error", err,
			)
		}
	}
}

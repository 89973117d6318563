package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store is the append-only event log. Appends are synchronous and
// fail-closed: if an event cannot be persisted the emitting operation
// must fail, because observers treat the log as the source of truth.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Publisher appends events to the store and, when an outbox channel is
// attached, hands them to the background fan-out worker. The fan-out is
// best-effort; the store append is not.
type Publisher struct {
	store  Store
	logger *slog.Logger
	outbox chan<- Event
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithOutbox attaches the channel drained by the fan-out Worker.
func WithOutbox(outbox chan<- Event) Option {
	return func(p *Publisher) {
		p.outbox = outbox
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists the event and queues it for fan-out. A full outbox drops the
// fan-out copy rather than stalling the registration path; the store copy is
// already durable.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.outbox != nil {
		select {
		case p.outbox <- event:
		default:
			p.logger.WarnContext(ctx, "event outbox full, dropping fan-out copy",
				"type", event.Type,
				"event_id", event.ID,
			)
		}
	}
	return nil
}

// List returns all persisted events in append order.
func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	return p.store.List(ctx)
}

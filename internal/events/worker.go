package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Sink receives fanned-out events, typically a Kafka producer.
type Sink interface {
	Publish(ctx context.Context, key, payload []byte) error
}

// Worker drains the publisher's outbox channel into the sink. Delivery is
// at-most-once: the store already holds the durable copy, so a failed publish
// is logged and skipped rather than retried into a stall.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "event fan-out failed",
					"type", event.Type,
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}

func (w *Worker) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	// Key by name so all events for one name land on one partition in order.
	return w.sink.Publish(ctx, []byte(event.Name), payload)
}

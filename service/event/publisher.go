package event

import (
	"context"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/service/messaging"
)

// Publisher publishes typed events onto a queue
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish stamps and publishes event
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	event.CreatedAt = clock.Now()
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event message; the caller acks or nacks it
func (p *Publisher[T]) Consume(ctx context.Context) (messaging.Message[Event[T]], error) {
	return p.queue.Consume(ctx)
}

// DeadLetters returns events whose handling kept failing, when the queue keeps them
func (p *Publisher[T]) DeadLetters() []Event[T] {
	if dlq, ok := p.queue.(interface{ DeadLetters() []Event[T] }); ok {
		return dlq.DeadLetters()
	}
	return nil
}

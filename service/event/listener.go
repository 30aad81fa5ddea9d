package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/crewflow/service/messaging"
)

// Listener delivers published events to a handler on its own goroutine
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

// NewListener creates a listener
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		done:      make(chan struct{}),
	}
}

// Start begins consuming events
func (l *Listener[T]) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				slog.Warn("failed to consume event", "error", err)
				continue
			}
			if msg == nil {
				continue
			}
			if err = l.handle(msg); err != nil {
				slog.Warn("event handler failed", "event", msg.ID(), "error", err)
			}
		}
	}()
}

// handle acks the message once the handler returns, or nacks it when the handler panics
func (l *Listener[T]) handle(msg messaging.Message[Event[T]]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			if nackErr := msg.Nack(err); nackErr != nil {
				err = errors.Join(err, nackErr)
			}
		}
	}()
	l.handler(msg.T())
	return msg.Ack()
}

// Stop cancels consumption and waits for the listener goroutine
func (l *Listener[T]) Stop() {
	l.once.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
		<-l.done
	})
}

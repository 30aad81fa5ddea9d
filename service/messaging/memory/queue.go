package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/internal/idgen"
	"github.com/viant/crewflow/service/messaging"
)

// ErrProcessed is returned when a message is acknowledged twice.
var ErrProcessed = errors.New("message already processed")

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message is a message of the in-memory queue
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	lastError  error
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
}

// ID returns the message identifier
func (m *Message[T]) ID() string { return m.id }

// T returns the message payload
func (m *Message[T]) T() *T { return &m.payload }

// Retries returns how many times the message has been redelivered
func (m *Message[T]) Retries() int { return m.retryCount }

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	return nil
}

// Nack redelivers the message after RetryDelay while under MaxRetries,
// otherwise moves it to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	m.lastError = err
	if m.retryCount < m.queue.config.MaxRetries {
		retry := &Message[T]{
			id:         m.id,
			payload:    m.payload,
			queue:      m.queue,
			retryCount: m.retryCount + 1,
			lastError:  err,
			createdAt:  clock.Now(),
		}
		go m.queue.redeliver(retry)
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

func (q *Queue[T]) redeliver(msg *Message[T]) {
	time.Sleep(q.config.RetryDelay)
	q.messages <- msg
}

// Publish adds a copy of t to the queue; it blocks while the buffer is full
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns payloads that exhausted their retries
func (q *Queue[T]) DeadLetters() []T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		ret = append(ret, msg.payload)
	}
	return ret
}

var _ messaging.Queue[any] = (*Queue[any])(nil)

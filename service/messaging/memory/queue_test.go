package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string
	Count int
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()

	input := payload{ID: "p1", Count: 1}
	require.NoError(t, queue.Publish(ctx, &input))
	input.Count = 2
	assert.Equal(t, 1, queue.Size())

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload{ID: "p1", Count: 1}, *msg.T(), "payload is copied on publish")
	assert.NotEmpty(t, msg.ID())
	require.NoError(t, msg.Ack())
	assert.ErrorIs(t, msg.Ack(), ErrProcessed)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[payload](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &payload{ID: "retry"}))
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, attempt, msg.(*Message[payload]).Retries())
		require.NoError(t, msg.Nack(errors.New("failed")))
	}
	assert.Equal(t, []payload{{ID: "retry"}}, queue.DeadLetters())
}

func TestQueue_ConsumeCancelled(t *testing.T) {
	queue := NewQueue[payload](Config{QueueBuffer: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, queue.Publish(ctx, &payload{}), context.Canceled)
}

func TestQueue_ConcurrentConsumers(t *testing.T) {
	queue := NewQueue[payload](Config{QueueBuffer: 50})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	for i := 0; i < 50; i++ {
		require.NoError(t, queue.Publish(ctx, &payload{Count: i}))
	}
	var mu sync.Mutex
	seen := map[int]bool{}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				msg, err := queue.Consume(ctx)
				if err != nil {
					return
				}
				_ = msg.Ack()
				mu.Lock()
				seen[msg.T().Count] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

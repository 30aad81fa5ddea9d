package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/service/messaging/memory"
)

type stepChange struct {
	Step  string
	State string
}

func TestService_PublishListen(t *testing.T) {
	srv := New(nil)
	defer srv.Close()

	var mu sync.Mutex
	var received []*Event[stepChange]
	done := make(chan struct{})
	SetListenerOf[stepChange](context.Background(), srv, func(e *Event[stepChange]) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
		if len(received) == 2 {
			close(done)
		}
	})

	publisher := PublisherOf[stepChange](srv)
	assert.Same(t, publisher, PublisherOf[stepChange](srv))
	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{RunID: "r", Step: "a", EventType: "started"}, stepChange{Step: "a", State: "running"})))
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{RunID: "r", Step: "a", EventType: "completed"}, stepChange{Step: "a", State: "completed"})))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("events not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "started", received[0].Context.EventType)
	assert.Equal(t, "completed", received[1].Data.State)
}

func TestListener_StopWithoutStart(t *testing.T) {
	listener := NewListener[stepChange](PublisherOf[stepChange](New(nil)), func(*Event[stepChange]) {})
	listener.Stop()
	listener.Stop()
}

func TestListener_HandlerPanic(t *testing.T) {
	srv := New(func(string) memory.Config {
		return memory.Config{MaxRetries: 1, RetryDelay: time.Millisecond, DeadLetter: true, QueueBuffer: 10}
	})
	defer srv.Close()

	var mu sync.Mutex
	attempts := map[string]int{}
	delivered := make(chan string, 10)
	SetListenerOf[stepChange](context.Background(), srv, func(e *Event[stepChange]) {
		mu.Lock()
		attempts[e.Data.Step]++
		attempt := attempts[e.Data.Step]
		mu.Unlock()
		switch {
		case e.Data.Step == "flaky" && attempt == 1:
			panic("flaky handler")
		case e.Data.Step == "broken":
			if attempt == 2 {
				delivered <- "broken"
			}
			panic("broken handler")
		}
		delivered <- e.Data.Step
	})

	ctx := context.Background()
	publisher := PublisherOf[stepChange](srv)
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{Step: "flaky"}, stepChange{Step: "flaky"})))
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{Step: "broken"}, stepChange{Step: "broken"})))

	var received []string
	for len(received) < 2 {
		select {
		case step := <-delivered:
			received = append(received, step)
		case <-time.After(time.Second):
			t.Fatalf("events not redelivered: %v", received)
		}
	}
	assert.ElementsMatch(t, []string{"flaky", "broken"}, received)
	assert.Eventually(t, func() bool {
		return len(DeadLettersOf[stepChange](srv)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "broken", DeadLettersOf[stepChange](srv)[0].Data.Step)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts["flaky"])
	assert.Equal(t, 2, attempts["broken"])
}

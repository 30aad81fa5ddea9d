package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var last Snapshot
	ctx, tracker := WithNewTracker(context.Background(), "run-1", "routing", func(s Snapshot) { last = s })

	UpdateCtx(ctx, Delta{Total: 3, Pending: 3})
	UpdateCtx(ctx, Delta{Pending: -1, Running: 1})
	UpdateCtx(ctx, Delta{Running: -1, Completed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "run-1", snapshot.RunID)
	assert.Equal(t, 3, snapshot.TotalSteps)
	assert.Equal(t, 2, snapshot.PendingSteps)
	assert.Equal(t, 0, snapshot.RunningSteps)
	assert.Equal(t, 1, snapshot.Finished())
	assert.Equal(t, snapshot, last)
}

func TestProgress_Concurrent(t *testing.T) {
	_, tracker := WithNewTracker(context.Background(), "run", "flow", nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Completed: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, tracker.Snapshot().CompletedSteps)
}

func TestProgress_NoTracker(t *testing.T) {
	UpdateCtx(context.Background(), Delta{Total: 1})
	var p *Progress
	p.Update(Delta{Total: 1})
	assert.Equal(t, Snapshot{}, p.Snapshot())
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

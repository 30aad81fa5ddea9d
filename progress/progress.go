package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
)

// Delta is an incremental, signed counter change.
type Delta struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}

// Progress keeps step counters of a run. It is safe for concurrent use.
type Progress struct {
	RunID     string
	Flow      string
	StartedAt time.Time

	TotalSteps     int
	PendingSteps   int
	RunningSteps   int
	CompletedSteps int
	FailedSteps    int

	mu       sync.Mutex
	onChange func(Snapshot)
}

// Snapshot is an immutable copy of the counters.
type Snapshot struct {
	RunID          string
	Flow           string
	StartedAt      time.Time
	TotalSteps     int
	PendingSteps   int
	RunningSteps   int
	CompletedSteps int
	FailedSteps    int
}

// Finished returns the number of steps that reached a terminal state.
func (s Snapshot) Finished() int {
	return s.CompletedSteps + s.FailedSteps
}

// Update applies d and notifies the change callback outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.TotalSteps += d.Total
	p.PendingSteps += d.Pending
	p.RunningSteps += d.Running
	p.CompletedSteps += d.Completed
	p.FailedSteps += d.Failed
	snapshot := p.snapshot()
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) snapshot() Snapshot {
	return Snapshot{
		RunID:          p.RunID,
		Flow:           p.Flow,
		StartedAt:      p.StartedAt,
		TotalSteps:     p.TotalSteps,
		PendingSteps:   p.PendingSteps,
		RunningSteps:   p.RunningSteps,
		CompletedSteps: p.CompletedSteps,
		FailedSteps:    p.FailedSteps,
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// OnChange registers the callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker embeds a new tracker in a derived context.
func WithNewTracker(ctx context.Context, runID, flow string, onChange func(Snapshot)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		RunID:     runID,
		Flow:      flow,
		StartedAt: clock.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}

package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/model/graph"
)

func TestStepState_CanTransition(t *testing.T) {
	testCases := []struct {
		from   StepState
		to     StepState
		expect bool
	}{
		{StepStatePending, StepStateReady, true},
		{StepStatePending, StepStateRunning, false},
		{StepStateReady, StepStateRunning, true},
		{StepStateRunning, StepStateCompleted, true},
		{StepStateRunning, StepStateFailed, true},
		{StepStateCompleted, StepStateRunning, false},
		{StepStateFailed, StepStateReady, false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, tc.from.CanTransition(tc.to), "%v -> %v", tc.from, tc.to)
	}
	assert.True(t, StepStateFailed.IsTerminal())
	assert.False(t, StepStateRunning.IsTerminal())
}

func TestRecord_Lifecycle(t *testing.T) {
	base := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return base }
	defer func() { clock.NowFunc = time.Now }()

	record := NewRecord[int]("run", "flow", []string{"a", "b", "join"})

	fired, err := record.Fire("a")
	require.NoError(t, err)
	assert.True(t, fired)
	fired, err = record.Fire("a")
	require.NoError(t, err)
	assert.False(t, fired, "second firing is ignored")

	require.NoError(t, record.Start("a"))
	assert.Equal(t, StepStateRunning, record.State("a"))

	activation := NewActivation[int]("run", "a", 1)
	activation.Start()
	activation.Complete(2)
	require.NoError(t, record.Finish(activation))
	out, ok := record.Output("a")
	assert.True(t, ok)
	assert.Equal(t, 2, out)

	_, ok = record.Output("b")
	assert.False(t, ok)

	_, err = record.Fire("missing")
	assert.Error(t, err)
	assert.Error(t, record.Start("b"), "pending step cannot start")

	_, _ = record.Fire("b")
	require.NoError(t, record.Start("b"))
	failed := NewActivation[int]("run", "b", 2)
	failed.Start()
	failed.Fail(errors.New("boom"))
	require.NoError(t, record.Finish(failed))

	assert.Equal(t, []string{"a", "b"}, record.Order())
	assert.Equal(t, map[string]string{"b": "boom"}, record.Faults())

	summaries := record.Summaries()
	require.Len(t, summaries, 3)
	assert.Equal(t, StepSummary{Name: "b", State: StepStateFailed, Error: "boom"}, summaries[1])
	assert.Equal(t, StepStatePending, summaries[2].State)
}

func TestRecord_Arrive(t *testing.T) {
	record := NewRecord[string]("run", "flow", []string{"join"})
	count, err := record.Arrive("join", graph.Done("a"), "from-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, _ = record.Arrive("join", graph.Done("a"), "again")
	assert.Equal(t, 1, count, "duplicate signal is ignored")
	count, _ = record.Arrive("join", graph.Routed("r", "x"), "from-r")
	assert.Equal(t, 2, count)

	arrivals := record.Arrivals("join")
	require.Len(t, arrivals, 2)
	assert.Equal(t, "from-a", arrivals[0].State)
	assert.Equal(t, "from-r", arrivals[1].State)
}

func TestActivation(t *testing.T) {
	activation := NewActivation[int]("run", "route", 5)
	assert.Equal(t, StepStateReady, activation.State)
	assert.Contains(t, activation.ID, "run-route-")
	activation.Start()
	activation.Routed("left")
	assert.Equal(t, 5, activation.Output)
	assert.Equal(t, "left", activation.Route)
	assert.Equal(t, StepStateCompleted, activation.State)
	assert.GreaterOrEqual(t, activation.Elapsed(), time.Duration(0))
}

func TestRunFromContext(t *testing.T) {
	assert.Nil(t, RunFromContext(context.Background()))
	ctx := WithRun(context.Background(), &Run{ID: "r1", Flow: "f", Step: "s"})
	assert.Equal(t, &Run{ID: "r1", Flow: "f", Step: "s"}, RunFromContext(ctx))
}

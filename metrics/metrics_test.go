package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder, err := NewRecorder(registry)
	require.NoError(t, err)

	recorder.ObserveStep("routing", "start", OutcomeCompleted, 10*time.Millisecond)
	recorder.ObserveStep("routing", "start", OutcomeCompleted, 5*time.Millisecond)
	recorder.ObserveStep("routing", "classify", OutcomeDegraded, time.Millisecond)
	recorder.ObserveRun("routing", OutcomeCompleted, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.steps.WithLabelValues("routing", "start", OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.steps.WithLabelValues("routing", "classify", OutcomeDegraded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.runs.WithLabelValues("routing", OutcomeCompleted)))
	assert.Equal(t, 2, testutil.CollectAndCount(recorder.stepDuration))

	again, err := NewRecorder(registry)
	require.NoError(t, err)
	assert.Same(t, recorder.runs, again.runs)
	again.ObserveRun("routing", OutcomeCompleted, time.Second)
	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.runs.WithLabelValues("routing", OutcomeCompleted)))

	conflicting := prometheus.NewRegistry()
	require.NoError(t, conflicting.Register(prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crewflow", Name: "runs_total", Help: "Workflow runs by flow and outcome."})))
	_, err = NewRecorder(conflicting)
	assert.Error(t, err)

	var none *Recorder
	none.ObserveStep("f", "s", OutcomeFailed, 0)
	none.ObserveRun("f", OutcomeFailed, 0)
}

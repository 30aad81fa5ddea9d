// Package metrics exposes Prometheus instruments for workflow runs and steps.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for runs and steps
const (
	OutcomeCompleted = "completed"
	OutcomeDegraded  = "degraded"
	OutcomeFailed    = "failed"
	OutcomeRouted    = "routed"
)

// Recorder holds the run and step instruments.
type Recorder struct {
	runs         *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runDuration  *prometheus.HistogramVec
}

// NewRecorder creates the instruments and registers them with registerer.
func NewRecorder(registerer prometheus.Registerer) (*Recorder, error) {
	ret := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewflow",
			Name:      "runs_total",
			Help:      "Workflow runs by flow and outcome.",
		}, []string{"flow", "outcome"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewflow",
			Name:      "steps_total",
			Help:      "Step executions by flow, step and outcome.",
		}, []string{"flow", "step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crewflow",
			Name:      "step_duration_seconds",
			Help:      "Step callback duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow", "step"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crewflow",
			Name:      "run_duration_seconds",
			Help:      "Workflow run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"flow"}),
	}
	if registerer == nil {
		return ret, nil
	}
	var err error
	if ret.runs, err = register(registerer, ret.runs); err != nil {
		return nil, err
	}
	if ret.steps, err = register(registerer, ret.steps); err != nil {
		return nil, err
	}
	if ret.stepDuration, err = register(registerer, ret.stepDuration); err != nil {
		return nil, err
	}
	if ret.runDuration, err = register(registerer, ret.runDuration); err != nil {
		return nil, err
	}
	return ret, nil
}

// register registers collector, or returns the identical collector registered earlier
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}
	var registered prometheus.AlreadyRegisteredError
	if errors.As(err, &registered) {
		if existing, ok := registered.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return collector, err
}

// ObserveStep records a finished step.
func (r *Recorder) ObserveStep(flow, step, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(flow, step, outcome).Inc()
	r.stepDuration.WithLabelValues(flow, step).Observe(elapsed.Seconds())
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(flow, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(flow, outcome).Inc()
	r.runDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

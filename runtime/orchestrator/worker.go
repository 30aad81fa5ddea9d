package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/crewflow/model/graph"
	"github.com/viant/crewflow/progress"
	"github.com/viant/crewflow/runtime/execution"
	"github.com/viant/crewflow/tracing"
)

// work consumes ready activations until the run context is cancelled.
func (r *run[S]) work(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		msg, err := r.queue.Consume(ctx)
		if err != nil {
			return
		}
		activation := msg.T()
		_ = msg.Ack()
		r.invoke(ctx, activation)
		r.done <- activation
	}
}

func (r *run[S]) invoke(ctx context.Context, activation *execution.Activation[S]) {
	step := r.steps[activation.Step]
	ctx = execution.WithRun(ctx, &execution.Run{ID: r.id, Flow: r.name, Step: step.Name})
	ctx, span := tracing.StartSpan(ctx, "step "+step.Name, tracing.KindInternal)
	span.WithAttributes(map[string]string{"flow": r.name, "run.id": r.id, "step": step.Name})
	if err := r.record.Start(step.Name); err != nil {
		r.logger.Error("invalid step transition", "step", step.Name, "error", err)
	}
	activation.Start()
	progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Running: 1})
	r.notify(ctx, activation, execution.EventStarted)
	r.logger.Debug("step started", "flow", r.name, "run", r.id, "step", step.Name)

	var (
		output S
		label  string
		err    error
	)
	for attempt := 1; ; attempt++ {
		activation.Attempts = attempt
		if step.IsRouter() {
			label, err = call(ctx, step.Timeout, func(ctx context.Context) (string, error) {
				return step.Router(ctx, activation.Input)
			})
		} else {
			output, err = call(ctx, step.Timeout, func(ctx context.Context) (S, error) {
				return step.Handler(ctx, activation.Input)
			})
		}
		if err == nil || !retry(ctx, step.Retry, attempt) {
			break
		}
		r.logger.Debug("retrying step", "step", step.Name, "attempt", attempt, "error", err)
	}
	switch {
	case err != nil:
		activation.Fail(&StepExecutionFailure{Step: step.Name, Attempts: activation.Attempts, Err: err})
	case step.IsRouter():
		activation.Routed(label)
		span.WithAttributes(map[string]string{"route": label})
	default:
		activation.Complete(output)
	}
	tracing.EndSpan(span, err)
}

// retry waits for the backoff of attempt and reports whether another attempt
// should be made.
func retry(ctx context.Context, strategy *graph.Retry, attempt int) bool {
	if strategy == nil || attempt > strategy.MaxRetries || ctx.Err() != nil {
		return false
	}
	delay := strategy.Backoff(attempt)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// call runs fn with an optional deadline and converts panics into errors.
func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (ret T, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return fn(ctx)
}

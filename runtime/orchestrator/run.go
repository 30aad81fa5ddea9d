package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/internal/idgen"
	"github.com/viant/crewflow/metrics"
	"github.com/viant/crewflow/model/graph"
	"github.com/viant/crewflow/model/state"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/progress"
	"github.com/viant/crewflow/runtime/execution"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/messaging/memory"
	"github.com/viant/crewflow/tracing"
)

// Terminal is the output of a step no other step listens to.
type Terminal[S any] struct {
	Step  string
	State S
}

// Outcome is the result of a run.
type Outcome[S any] struct {
	RunID     string
	Flow      string
	State     S
	Terminals []Terminal[S]
	Trail     []string
	Faults    map[string]string
	Steps     []execution.StepSummary
	StartedAt time.Time
	Duration  time.Duration
}

// Degraded returns true when at least one step failed and was substituted.
func (o *Outcome[S]) Degraded() bool {
	return len(o.Faults) > 0
}

// Summary returns the serialisable run summary, without the state.
func (o *Outcome[S]) Summary() *execution.RunSummary {
	status := execution.RunStatusCompleted
	if o.Degraded() {
		status = execution.RunStatusDegraded
	}
	return &execution.RunSummary{
		ID:        o.RunID,
		Flow:      o.Flow,
		Status:    status,
		StartedAt: o.StartedAt,
		Duration:  o.Duration,
		Trail:     append([]string(nil), o.Trail...),
		Faults:    state.CloneMap(o.Faults),
		Steps:     append([]execution.StepSummary(nil), o.Steps...),
	}
}

type run[S any] struct {
	*Orchestrator[S]
	id       string
	policy   *policy.Policy
	record   *execution.Record[S]
	queue    *memory.Queue[execution.Activation[S]]
	done     chan *execution.Activation[S]
	inFlight int
	finished []Terminal[S]
}

// Run executes the graph from initial and returns the final state.
func (o *Orchestrator[S]) Run(ctx context.Context, initial S) (S, error) {
	outcome, err := o.Execute(ctx, initial)
	if err != nil {
		var zero S
		return zero, err
	}
	return outcome.State, nil
}

// Execute executes the graph from initial and returns the run outcome.
func (o *Orchestrator[S]) Execute(ctx context.Context, initial S) (*Outcome[S], error) {
	r := &run[S]{
		Orchestrator: o,
		id:           idgen.New(),
		policy:       o.policy,
		queue:        memory.NewQueue[execution.Activation[S]](memory.Config{QueueBuffer: len(o.order) + 1}),
		done:         make(chan *execution.Activation[S], len(o.order)+1),
	}
	if p := policy.FromContext(ctx); p != nil {
		r.policy = p
	}
	r.record = execution.NewRecord[S](r.id, o.name, o.order)
	ctx, span := tracing.StartSpan(ctx, "workflow "+o.name, tracing.KindInternal)
	span.WithAttributes(map[string]string{"flow": o.name, "run.id": r.id})
	started := clock.Now()
	o.logger.Debug("workflow started", "flow", o.name, "run", r.id, "workers", o.workers)

	outcome, err := r.execute(ctx, initial)

	elapsed := clock.Since(started)
	tracing.EndSpan(span, err)
	switch {
	case err != nil:
		o.metrics.ObserveRun(o.name, metrics.OutcomeFailed, elapsed)
		o.logger.Error("workflow failed", "flow", o.name, "run", r.id, "error", err)
		return nil, err
	case outcome.Degraded():
		o.metrics.ObserveRun(o.name, metrics.OutcomeDegraded, elapsed)
		o.logger.Warn("workflow completed with degraded steps", "flow", o.name, "run", r.id, "degraded", len(outcome.Faults))
	default:
		o.metrics.ObserveRun(o.name, metrics.OutcomeCompleted, elapsed)
		o.logger.Debug("workflow completed", "flow", o.name, "run", r.id, "elapsed", elapsed)
	}
	outcome.StartedAt = started
	outcome.Duration = elapsed
	return outcome, nil
}

func (r *run[S]) execute(ctx context.Context, initial S) (*Outcome[S], error) {
	if r.validator != nil {
		if err := r.validator.Validate(initial); err != nil {
			return nil, &StateValidationError{Err: err}
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	wg := &sync.WaitGroup{}
	defer func() {
		cancel()
		wg.Wait()
	}()
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go r.work(ctx, wg)
	}
	progress.UpdateCtx(ctx, progress.Delta{Total: len(r.order), Pending: len(r.order)})
	if err := r.fire(ctx, r.start, initial); err != nil {
		return nil, err
	}
	for r.inFlight > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		select {
		case activation := <-r.done:
			r.inFlight--
			if err := r.complete(ctx, activation); err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.outcome(ctx)
}

// fire moves step to ready and hands it to the workers; a step fires at most once.
func (r *run[S]) fire(ctx context.Context, step string, input S) error {
	fired, err := r.record.Fire(step)
	if err != nil || !fired {
		return err
	}
	activation := execution.NewActivation[S](r.id, step, state.Snapshot(input))
	if err = r.queue.Publish(ctx, activation); err != nil {
		return err
	}
	r.inFlight++
	return nil
}

// signal delivers a predecessor signal to a listening step.
func (r *run[S]) signal(ctx context.Context, target string, ref graph.Ref, output S) error {
	step := r.steps[target]
	if step.Trigger.Kind != graph.KindAnd {
		return r.fire(ctx, target, output)
	}
	count, err := r.record.Arrive(target, ref, output)
	if err != nil || count < len(step.Trigger.On) {
		return err
	}
	arrivals := r.record.Arrivals(target)
	input := arrivals[len(arrivals)-1].State
	if step.Merge != nil {
		states := make([]S, 0, len(arrivals))
		for _, arrival := range arrivals {
			states = append(states, state.Snapshot(arrival.State))
		}
		if input, err = step.Merge(ctx, states); err != nil {
			return &StepExecutionFailure{Step: target, Err: fmt.Errorf("failed to merge join inputs: %w", err)}
		}
	}
	return r.fire(ctx, target, input)
}

// complete applies a finished activation: failure policy, journal, schema,
// record, notifications and successor signals.
func (r *run[S]) complete(ctx context.Context, activation *execution.Activation[S]) error {
	step := r.steps[activation.Step]
	outcome := metrics.OutcomeCompleted
	if step.IsRouter() {
		outcome = metrics.OutcomeRouted
	}
	if activation.State == execution.StepStateFailed {
		if r.policy.Aborts(step.Name) || (step.IsRouter() && step.FallbackRoute == "") {
			_ = r.record.Finish(activation)
			r.notify(ctx, activation, execution.EventFailed)
			r.metrics.ObserveStep(r.name, step.Name, metrics.OutcomeFailed, activation.Elapsed())
			return activation.Err
		}
		r.degrade(step, activation)
		outcome = metrics.OutcomeDegraded
	}
	if !step.IsRouter() {
		faults := r.record.Faults()
		if activation.State == execution.StepStateFailed {
			faults[step.Name] = activation.Error
		}
		activation.Output = withJournal(activation.Output, append(r.record.Order(), step.Name), faults)
		if r.validator != nil {
			if err := r.validator.Validate(activation.Output); err != nil {
				return &StateValidationError{Step: step.Name, Err: err}
			}
		}
	}
	if err := r.record.Finish(activation); err != nil {
		return err
	}
	eventType := execution.EventCompleted
	switch outcome {
	case metrics.OutcomeDegraded:
		eventType = execution.EventDegraded
	case metrics.OutcomeRouted:
		eventType = execution.EventRouted
	}
	r.notify(ctx, activation, eventType)
	r.metrics.ObserveStep(r.name, step.Name, outcome, activation.Elapsed())
	delta := progress.Delta{Running: -1, Completed: 1}
	if activation.State == execution.StepStateFailed {
		delta = progress.Delta{Running: -1, Failed: 1}
	}
	progress.UpdateCtx(ctx, delta)

	ref := graph.Done(step.Name)
	if step.IsRouter() {
		ref = graph.Routed(step.Name, activation.Route)
		if len(r.listeners[ref]) == 0 {
			return &UnknownRouteError{Router: step.Name, Label: activation.Route, Known: r.Routes(step.Name)}
		}
	} else if r.terminals[step.Name] {
		r.finished = append(r.finished, Terminal[S]{Step: step.Name, State: activation.Output})
	}
	for _, target := range r.listeners[ref] {
		if err := r.signal(ctx, target, ref, activation.Output); err != nil {
			return err
		}
	}
	return nil
}

func (r *run[S]) degrade(step *graph.Step[S], activation *execution.Activation[S]) {
	cause := activation.Err
	var failure *StepExecutionFailure
	if errors.As(cause, &failure) {
		cause = failure.Err
	}
	switch {
	case step.IsRouter():
		activation.Output = activation.Input
		activation.Route = step.FallbackRoute
	case step.Fallback != nil:
		activation.Output = step.Fallback(state.Snapshot(activation.Input), cause)
	default:
		activation.Output = activation.Input
	}
	r.logger.Warn("step degraded", "flow", r.name, "run", r.id, "step", step.Name, "error", cause)
}

func (r *run[S]) outcome(ctx context.Context) (*Outcome[S], error) {
	ret := &Outcome[S]{
		RunID:     r.id,
		Flow:      r.name,
		Terminals: r.finished,
		Trail:     r.record.Order(),
		Faults:    r.record.Faults(),
		Steps:     r.record.Summaries(),
	}
	switch len(r.finished) {
	case 0:
		if len(ret.Trail) > 0 {
			ret.State, _ = r.record.Output(ret.Trail[len(ret.Trail)-1])
		}
	case 1:
		ret.State = r.finished[0].State
	default:
		if r.terminalMerge == nil {
			last := r.finished[len(r.finished)-1]
			r.logger.Warn("several terminal steps completed, using the last one", "flow", r.name, "run", r.id, "step", last.Step, "terminals", len(r.finished))
			ret.State = last.State
			break
		}
		states := make([]S, 0, len(r.finished))
		for _, terminal := range r.finished {
			states = append(states, terminal.State)
		}
		merged, err := r.terminalMerge(ctx, states)
		if err != nil {
			return nil, fmt.Errorf("failed to merge terminal outputs: %w", err)
		}
		ret.State = merged
	}
	// steps finishing after a terminal fired are only known once the run drained
	for i := range ret.Terminals {
		ret.Terminals[i].State = withJournal(ret.Terminals[i].State, ret.Trail, ret.Faults)
	}
	ret.State = withJournal(ret.State, ret.Trail, ret.Faults)
	if r.validator != nil {
		if err := r.validator.Validate(ret.State); err != nil {
			return nil, &StateValidationError{Step: "", Err: err}
		}
	}
	return ret, nil
}

// withJournal returns output with its journal, if any, set to trail and faults.
func withJournal[S any](output S, trail []string, faults map[string]string) S {
	if journal, ok := state.JournalOf(&output); ok {
		*journal = journal.With(trail, faults)
	}
	return output
}

func (r *run[S]) notify(ctx context.Context, activation *execution.Activation[S], eventType string) {
	if r.events == nil {
		return
	}
	elapsed := activation.Elapsed()
	data := execution.StepEvent{
		RunID:    r.id,
		Flow:     r.name,
		Step:     activation.Step,
		Type:     eventType,
		State:    activation.State,
		Route:    activation.Route,
		Error:    activation.Error,
		Duration: elapsed,
	}
	evt := event.NewEvent(&event.Context{RunID: r.id, Flow: r.name, Step: activation.Step, EventType: eventType, TimeTakenMs: int(elapsed.Milliseconds())}, data)
	if err := r.events.Publish(ctx, evt); err != nil {
		r.logger.Debug("failed to publish step event", "step", activation.Step, "error", err)
	}
}

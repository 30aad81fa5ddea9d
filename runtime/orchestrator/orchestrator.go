package orchestrator

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/viant/crewflow/model/graph"
)

// Validator validates workflow states.
type Validator[S any] interface {
	Validate(state S) error
}

// Orchestrator is a validated, immutable workflow graph. It is safe to run
// concurrently; every run owns its own record.
type Orchestrator[S any] struct {
	name          string
	steps         map[string]*graph.Step[S]
	order         []string
	start         string
	listeners     map[graph.Ref][]string
	routes        map[string][]string
	terminals     map[string]bool
	validator     Validator[S]
	terminalMerge graph.Merge[S]
	options
}

// Build validates steps and returns a runnable orchestrator, or a
// *GraphDefinitionError listing every problem found.
func Build[S any](name string, steps []*graph.Step[S], opts ...Option) (*Orchestrator[S], error) {
	ret := &Orchestrator[S]{
		name:      name,
		steps:     make(map[string]*graph.Step[S], len(steps)),
		listeners: make(map[graph.Ref][]string),
		routes:    make(map[string][]string),
		terminals: make(map[string]bool),
		options:   defaultOptions(),
	}
	for _, opt := range opts {
		opt(&ret.options)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	issues := &GraphDefinitionError{Flow: name}
	ret.register(steps, issues)
	ret.link(issues)
	ret.checkRouters(issues)
	ret.checkCycles(issues)
	ret.bindOptions(issues)
	if len(issues.Issues) > 0 {
		return nil, issues
	}
	for _, stepName := range ret.order {
		if !ret.steps[stepName].IsRouter() && len(ret.listeners[graph.Done(stepName)]) == 0 {
			ret.terminals[stepName] = true
		}
	}
	return ret, nil
}

func (o *Orchestrator[S]) register(steps []*graph.Step[S], issues *GraphDefinitionError) {
	if len(steps) == 0 {
		issues.add("", ReasonEmpty, "")
		return
	}
	var starts []string
	for _, step := range steps {
		if step == nil {
			issues.add("", ReasonNilStep, "")
			continue
		}
		if step.Name == "" {
			issues.add("", ReasonUnnamed, "")
			continue
		}
		if _, ok := o.steps[step.Name]; ok {
			issues.add(step.Name, ReasonDuplicate, "")
			continue
		}
		o.steps[step.Name] = step
		o.order = append(o.order, step.Name)
		switch {
		case step.Handler == nil && step.Router == nil:
			issues.add(step.Name, ReasonNoCallback, "")
		case step.Handler != nil && step.Router != nil:
			issues.add(step.Name, ReasonBothCallbacks, "")
		}
		if step.IsStart() {
			starts = append(starts, step.Name)
		}
	}
	switch len(starts) {
	case 0:
		issues.add("", ReasonNoStart, "")
	case 1:
		o.start = starts[0]
	default:
		issues.add("", ReasonManyStarts, strings.Join(starts, ", "))
	}
}

func (o *Orchestrator[S]) link(issues *GraphDefinitionError) {
	for _, name := range o.order {
		step := o.steps[name]
		trigger := step.Trigger
		if step.Merge != nil && (trigger == nil || trigger.Kind != graph.KindAnd) {
			issues.add(name, ReasonMergeNotAnd, "")
		}
		if trigger == nil {
			continue
		}
		distinct := map[graph.Ref]bool{}
		var refs []graph.Ref
		for _, ref := range trigger.On {
			if distinct[ref] {
				issues.add(name, ReasonDuplicateRef, ref.String())
				continue
			}
			distinct[ref] = true
			refs = append(refs, ref)
		}
		switch trigger.Kind {
		case graph.KindSingle:
			if len(trigger.On) != 1 {
				issues.add(name, ReasonSingleArity, trigger.String())
			}
		case graph.KindOr:
			if len(trigger.On) == 0 {
				issues.add(name, ReasonEmptyOr, "")
			}
		case graph.KindAnd:
			if len(distinct) < 2 {
				issues.add(name, ReasonDegenerateAnd, trigger.String())
			}
			labels := map[string]int{}
			for _, ref := range refs {
				if !ref.IsRoute() {
					continue
				}
				if labels[ref.Step]++; labels[ref.Step] == 2 {
					issues.add(name, ReasonExclusiveAnd, ref.Step)
				}
			}
		default:
			issues.add(name, ReasonUnknownKind, string(trigger.Kind))
			continue
		}
		for _, ref := range refs {
			pred, ok := o.steps[ref.Step]
			switch {
			case !ok:
				issues.add(name, ReasonUnknownRef, ref.Step)
				continue
			case pred.IsRouter() && !ref.IsRoute():
				issues.add(name, ReasonUnlabelledRouter, ref.Step)
				continue
			case !pred.IsRouter() && ref.IsRoute():
				issues.add(name, ReasonLabelOnStep, ref.String())
				continue
			}
			o.listeners[ref] = append(o.listeners[ref], name)
			if ref.IsRoute() && !containsString(o.routes[ref.Step], ref.Label) {
				o.routes[ref.Step] = append(o.routes[ref.Step], ref.Label)
			}
		}
	}
	for router := range o.routes {
		sort.Strings(o.routes[router])
	}
}

func (o *Orchestrator[S]) checkRouters(issues *GraphDefinitionError) {
	for _, name := range o.order {
		step := o.steps[name]
		if !step.IsRouter() {
			continue
		}
		labels := o.routes[name]
		if len(labels) == 0 {
			issues.add(name, ReasonNoRoutes, "")
			continue
		}
		if step.FallbackRoute != "" && !containsString(labels, step.FallbackRoute) {
			issues.add(name, ReasonFallbackRoute, step.FallbackRoute)
		}
	}
}

// checkCycles runs a white/grey/black DFS over predecessor -> successor edges.
func (o *Orchestrator[S]) checkCycles(issues *GraphDefinitionError) {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	successors := map[string][]string{}
	for _, name := range o.order {
		for _, pred := range o.steps[name].Trigger.Predecessors() {
			if _, ok := o.steps[pred]; ok {
				successors[pred] = append(successors[pred], name)
			}
		}
	}
	colour := map[string]int{}
	var stack []string
	var dfs func(n string) bool
	dfs = func(n string) bool {
		colour[n] = grey
		stack = append(stack, n)
		for _, next := range successors[n] {
			switch colour[next] {
			case grey:
				var cycle []string
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle = append(append(cycle, stack[i:]...), next)
						break
					}
				}
				issues.add(next, ReasonCycle, strings.Join(cycle, " -> "))
				return true
			case white:
				if dfs(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		colour[n] = black
		return false
	}
	for _, name := range o.order {
		if colour[name] == white {
			stack = stack[:0]
			if dfs(name) {
				return
			}
		}
	}
}

func (o *Orchestrator[S]) bindOptions(issues *GraphDefinitionError) {
	if o.schema != nil {
		validator, ok := o.schema.(Validator[S])
		if !ok {
			issues.add("", ReasonSchemaType, "")
		}
		o.validator = validator
	}
	if o.options.terminalMerge != nil {
		merge, ok := o.options.terminalMerge.(graph.Merge[S])
		if !ok {
			issues.add("", ReasonTerminalMerge, "")
		}
		o.terminalMerge = merge
	}
}

// Name returns the flow name
func (o *Orchestrator[S]) Name() string { return o.name }

// Start returns the start step name
func (o *Orchestrator[S]) Start() string { return o.start }

// Nodes describes the graph in declaration order
func (o *Orchestrator[S]) Nodes() []*graph.Node {
	ret := make([]*graph.Node, 0, len(o.order))
	for _, name := range o.order {
		ret = append(ret, o.steps[name].Node())
	}
	return ret
}

// Routes returns the labels registered under router, sorted
func (o *Orchestrator[S]) Routes(router string) []string {
	return append([]string(nil), o.routes[router]...)
}

// Terminals returns steps no other step listens to, in declaration order
func (o *Orchestrator[S]) Terminals() []string {
	var ret []string
	for _, name := range o.order {
		if o.terminals[name] {
			ret = append(ret, name)
		}
	}
	return ret
}

func containsString(list []string, value string) bool {
	for _, candidate := range list {
		if candidate == value {
			return true
		}
	}
	return false
}

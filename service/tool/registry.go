package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the tools available to agents
type Registry struct {
	tools map[string]Tool
	mux   sync.RWMutex
}

// NewRegistry creates a registry with tools
func NewRegistry(tools ...Tool) (*Registry, error) {
	ret := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := ret.Register(t); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Register adds a tool; names are unique
func (r *Registry) Register(t Tool) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.tools[t.Name()]; ok {
		return fmt.Errorf("tool %v already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Lookup returns a tool by name
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret, ok := r.tools[name]
	return ret, ok
}

// Names returns sorted tool names
func (r *Registry) Names() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]string, 0, len(r.tools))
	for name := range r.tools {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Select returns the named tools in the given order
func (r *Registry) Select(names ...string) ([]Tool, error) {
	ret := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.Lookup(name)
		if !ok {
			return nil, &NotFoundError{Name: name}
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// Invoke runs a tool call against tools
func Invoke(ctx context.Context, tools []Tool, call *Call) (string, error) {
	for _, t := range tools {
		if t.Name() == call.Name {
			return t.Call(ctx, call.Arguments)
		}
	}
	return "", &NotFoundError{Name: call.Name}
}

// Describe renders tools as a prompt section
func Describe(tools []Tool) string {
	builder := strings.Builder{}
	for i, t := range tools {
		if i > 0 {
			builder.WriteString("\n")
		}
		args, _ := json.Marshal(t.Schema())
		builder.WriteString("- " + t.Name() + ": " + strings.TrimSpace(t.Description()) + "\n  arguments schema: " + string(args))
	}
	return builder.String()
}

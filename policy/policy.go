package policy

import (
	"context"
	"fmt"
	"strings"
)

// Failure modes recognised by the orchestrator.
const (
	ModeDegrade = "degrade" // record the fault, substitute a fallback, continue (default)
	ModeAbort   = "abort"   // stop the run and return the failure
)

// Policy decides whether a failed step aborts the run.
//
//   - Mode sets the default behaviour (degrade / abort).
//   - Critical steps always abort.
//   - Tolerant steps always degrade.
//
// A nil *Policy degrades every failure.
type Policy struct {
	Mode     string
	Critical []string
	Tolerant []string
}

// Config is the serialisable form of a Policy.
type Config struct {
	Mode     string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Critical []string `json:"critical,omitempty" yaml:"critical,omitempty"`
	Tolerant []string `json:"tolerant,omitempty" yaml:"tolerant,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:     p.Mode,
		Critical: append([]string(nil), p.Critical...),
		Tolerant: append([]string(nil), p.Tolerant...),
	}
}

// FromConfig converts a Config into a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:     c.Mode,
		Critical: append([]string(nil), c.Critical...),
		Tolerant: append([]string(nil), c.Tolerant...),
	}
}

// Validate checks the mode.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch strings.ToLower(c.Mode) {
	case "", ModeDegrade, ModeAbort:
		return nil
	}
	return fmt.Errorf("unsupported failure mode: %v", c.Mode)
}

// Aborts returns true when a failure of step must stop the run. Step names
// match case-insensitively; Tolerant has priority over Critical.
func (p *Policy) Aborts(step string) bool {
	if p == nil {
		return false
	}
	if contains(p.Tolerant, step) {
		return false
	}
	if contains(p.Critical, step) {
		return true
	}
	return strings.EqualFold(p.Mode, ModeAbort)
}

func contains(list []string, name string) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, name) {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext returns the policy carried by ctx, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}

// Package policy provides the failure policy applied by the orchestrator when
// a step callback fails.
package policy

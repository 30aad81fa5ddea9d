// Package progress keeps aggregated step counters of a single workflow run.
// The tracker lives in the run context so that any component receiving the
// context can update or observe it.
package progress

package clock

import "time"

// StampLayout is the layout used for timestamped output names.
const StampLayout = "20060102_1504"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since t according to NowFunc.
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }

// Stamp formats the current time with StampLayout.
func Stamp() string { return NowFunc().Format(StampLayout) }

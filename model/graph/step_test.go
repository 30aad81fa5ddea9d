package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrigger(t *testing.T) {
	testCases := []struct {
		name         string
		trigger      *Trigger
		expectKind   Kind
		expectString string
		expectPreds  []string
	}{
		{name: "after", trigger: After("a"), expectKind: KindSingle, expectString: "single(a)", expectPreds: []string{"a"}},
		{name: "route", trigger: OnRoute("r", "x"), expectKind: KindSingle, expectString: "single(r#x)", expectPreds: []string{"r"}},
		{name: "any", trigger: AnyOf(Done("a"), Routed("r", "y")), expectKind: KindOr, expectString: "or(a, r#y)", expectPreds: []string{"a", "r"}},
		{name: "all", trigger: AllOf(Done("a"), Done("b"), Done("a")), expectKind: KindAnd, expectString: "and(a, b, a)", expectPreds: []string{"a", "b"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectKind, tc.trigger.Kind)
			assert.Equal(t, tc.expectString, tc.trigger.String())
			assert.Equal(t, tc.expectPreds, tc.trigger.Predecessors())
		})
	}
	var start *Trigger
	assert.Equal(t, "start", start.String())
}

func TestStep_Builders(t *testing.T) {
	noop := func(ctx context.Context, in int) (int, error) { return in, nil }
	route := func(ctx context.Context, in int) (string, error) { return "x", nil }

	start := Start[int]("start", noop).WithDescription("entry")
	assert.True(t, start.IsStart())
	assert.False(t, start.IsRouter())

	router := NewRouter[int]("route", route, After("start")).WithFallbackRoute("x").WithTimeout(time.Second)
	assert.True(t, router.IsRouter())
	assert.Equal(t, "x", router.FallbackRoute)
	assert.Equal(t, time.Second, router.Timeout)

	node := router.Node()
	assert.Equal(t, &Node{Name: "route", Kind: KindSingle, On: []Ref{Done("start")}, Router: true}, node)
	assert.Equal(t, &Node{Name: "start", Description: "entry"}, start.Node())
}

func TestRetry_Backoff(t *testing.T) {
	var none *Retry
	assert.Equal(t, time.Duration(0), none.Backoff(1))

	fixed := &Retry{MaxRetries: 3, Delay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, fixed.Backoff(3))

	exp := &Retry{MaxRetries: 3, Delay: 10 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 10*time.Millisecond, exp.Backoff(1))
	assert.Equal(t, 40*time.Millisecond, exp.Backoff(3))
}

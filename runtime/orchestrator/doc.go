// Package orchestrator builds validated workflow graphs out of steps and runs
// them. A run starts at the single start step; SINGLE, OR and AND triggers
// decide when successors become ready and routers choose which labelled
// branch receives the state. Ready steps are handed to a pool of workers via
// a memory queue while a single scheduler goroutine applies completions one
// at a time, so join bookkeeping never races.
//
//	flow, err := orchestrator.Build("greeting", []*graph.Step[State]{
//		graph.Start("start", start),
//		graph.NewStep("left", left, graph.After("start")),
//		graph.NewStep("right", right, graph.After("start")),
//		graph.NewStep("join", join, graph.AllOf(graph.Done("left"), graph.Done("right"))),
//	})
//	final, err := flow.Run(ctx, State{Topic: "X"})
package orchestrator

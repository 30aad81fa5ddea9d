// Package crewflow runs multi-agent workflows: typed state flows through a
// graph of steps, some of which kick off crews of LLM agents.
//
// The engine itself lives in runtime/orchestrator and is generic over the
// state type. The root package wires it with the ambient collaborators
// (logging, storage, knowledge, models, tools, metrics, tracing) through the
// Service façade:
//
//	srv, _ := crewflow.New(ctx, crewflow.WithConfig(cfg))
//	defer srv.Close()
//	outcome, _ := srv.Runtime().RunRouting(ctx, "distributed tracing")
//	fmt.Println(outcome.State.TypeOfProcessing)
//
// For more details see the individual sub-packages.
package crewflow

/*
Package espalier is a declarative workflow engine for orchestrating
sequences of black-box step executors ("agents") as explicit state
machines.

Workflows are loaded from YAML documents, validated structurally, and
executed by a per-execution sequential loop that supports conditional
branching, parallel fan-out with a join barrier, trigger-gated states,
human approval gates and checkpoint/resume.

# Concept

A workflow is a graph of typed states. The engine owns transitions,
output-data merging and persistence; the host owns what a step actually
computes, via the ports.AgentExecutor collaborator. This keeps the core
embeddable in any surface: CLI, HTTP service or agent infrastructure.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/domain"
		"github.com/aretw0/espalier/pkg/ports"
	)

	func main() {
		wf, err := espalier.LoadFile("release.yaml")
		if err != nil {
			log.Fatal(err)
		}

		executor := ports.AgentExecutorFunc(func(ctx context.Context, name, input string, data map[string]any) (domain.ExecutorResult, error) {
			// Call your agent, tool or service here.
			return domain.ExecutorResult{Success: true, Data: map[string]any{name + "_done": true}}, nil
		})

		eng := espalier.New(executor)
		_, snapshots, err := eng.Start(context.Background(), wf, "ship v2")
		if err != nil {
			log.Fatal(err)
		}
		for snapshot := range snapshots {
			fmt.Println(snapshot.CurrentStateID, snapshot.Status)
		}
	}

Executions emit every runtime snapshot in causal order on the returned
channel; the channel closes when the execution completes, fails or is
cancelled. Approvals and cancellation are delivered through the same
Engine from any goroutine.
*/
package espalier

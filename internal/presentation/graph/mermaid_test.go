package graph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	wf := &domain.Workflow{
		Name: "release",
		States: []domain.State{
			{ID: "init", Type: domain.StateTypeStart, Next: "build"},
			{ID: "build", Type: domain.StateTypeAgent, Executor: "builder", Timeout: 90 * time.Second, Conditions: []domain.Transition{
				{If: `build.success == "yes"`, Then: "review"},
				{Then: "failed", IsDefault: true},
			}},
			{ID: "review", Type: domain.StateTypeHumanGate, HumanGate: &domain.HumanGate{
				OnApprove: "done",
				OnReject:  "failed",
			}},
			{ID: "done", Type: domain.StateTypeTerminal},
			{ID: "failed", Type: domain.StateTypeTerminal},
		},
	}

	out := graph.GenerateMermaid(wf, nil)

	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `init(("init"))`)
	assert.Contains(t, out, `done([`)
	assert.Contains(t, out, "⏱️ 1m30s")
	// Expression quotes are rewritten so labels stay parseable.
	assert.Contains(t, out, `-- "build.success == 'yes'" -->`)
	assert.Contains(t, out, `-- "else" --> failed`)
	assert.Contains(t, out, "approve")
	assert.NotContains(t, out, "Overlay Styles")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	wf := &domain.Workflow{
		Name: "wf",
		States: []domain.State{
			{ID: "a", Type: domain.StateTypeStart, Next: "b"},
			{ID: "b", Type: domain.StateTypeTerminal},
		},
	}

	out := graph.GenerateMermaid(wf, &graph.Overlay{
		VisitedStates: []string{"a", "a"},
		CurrentState:  "b",
	})

	assert.Contains(t, out, "class a visited;")
	assert.Contains(t, out, "class b current;")
	// Duplicate history entries style the node once.
	assert.Equal(t, 1, countOccurrences(out, "class a visited;"))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

// Package graph renders workflow definitions as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Overlay contains dynamic execution data to visualize on the graph.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces Mermaid flowchart syntax from a workflow.
// It applies semantic styling:
//   - start: ((Circle))
//   - terminal: ([Stadium])
//   - agent / parallel: [[Subroutine]]
//   - human_gate: [/Parallelogram/]
//   - default: [Rectangle]
//
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(wf *domain.Workflow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i := range wf.States {
		state := &wf.States[i]
		safeID := sanitizeMermaidID(state.ID)

		opener, closer := "[", "]"
		switch state.Type {
		case domain.StateTypeStart:
			opener, closer = "((", "))"
		case domain.StateTypeTerminal:
			opener, closer = "([", "])"
		case domain.StateTypeAgent, domain.StateTypeParallel:
			opener, closer = "[[", "]]"
		case domain.StateTypeHumanGate:
			opener, closer = "[/", "/]"
		}

		label := state.ID
		if state.Timeout > 0 {
			label = fmt.Sprintf("%s <br/> ⏱️ %s", state.ID, state.Timeout)
		}
		if state.Trigger != nil {
			label = fmt.Sprintf("%s <br/> ⏳ %s", label, state.Trigger.Type)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, c := range state.Conditions {
			arrow := fmt.Sprintf("-- \"%s\" -->", escapeLabel(c.If))
			if c.IsDefault {
				arrow = "-- \"else\" -->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(c.Then)))
		}
		if state.Next != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(state.Next)))
		}
		if state.HumanGate != nil {
			if state.HumanGate.OnApprove != "" {
				sb.WriteString(fmt.Sprintf("    %s -. \"✅ approve\" .-> %s\n", safeID, sanitizeMermaidID(state.HumanGate.OnApprove)))
			}
			if state.HumanGate.OnReject != "" {
				sb.WriteString(fmt.Sprintf("    %s -. \"❌ reject\" .-> %s\n", safeID, sanitizeMermaidID(state.HumanGate.OnReject)))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentState != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentState)))
		}
	}

	return sb.String()
}

// escapeLabel keeps expression text from breaking Mermaid label syntax.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

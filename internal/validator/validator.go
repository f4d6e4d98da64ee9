// Package validator checks the structural integrity of a loaded workflow
// before execution. It never fails with an error: the result is a report
// of blocking errors and non-blocking warnings.
package validator

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Issue codes. Errors block execution; warnings do not.
const (
	CodeEmptyName      = "empty_name"
	CodeNoStates       = "no_states"
	CodeDuplicateState = "duplicate_state"
	CodeUnknownTarget  = "unknown_target"
	CodeUnknownAgent   = "unknown_agent"
	CodeNoTerminal     = "no_terminal"
)

// Issue is one finding of the validator.
type Issue struct {
	Code    string `json:"code"`
	StateID string `json:"state_id,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.StateID != "" {
		return fmt.Sprintf("[%s] state %q: %s", i.Code, i.StateID, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Code, i.Message)
}

// Report aggregates validation findings.
type Report struct {
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// IsValid reports whether the workflow may be executed.
func (r Report) IsValid() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(code, stateID, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, StateID: stateID, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(code, stateID, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, StateID: stateID, Message: fmt.Sprintf(format, args...)})
}

// Validate runs all structural checks against the workflow.
// The rules are deterministic and order-independent; the report lists
// issues in declaration order for readability only.
func Validate(wf *domain.Workflow) Report {
	var report Report

	if wf.Name == "" {
		report.errorf(CodeEmptyName, "", "workflow name must not be empty")
	}
	if len(wf.States) == 0 {
		report.errorf(CodeNoStates, "", "workflow must declare at least one state")
		return report
	}

	ids := make(map[string]bool, len(wf.States))
	for _, s := range wf.States {
		if ids[s.ID] {
			report.errorf(CodeDuplicateState, s.ID, "duplicate state id")
			continue
		}
		ids[s.ID] = true
	}

	aliases := wf.AgentAliases()

	for _, s := range wf.States {
		checkTarget := func(field, target string) {
			if target != "" && !ids[target] {
				report.errorf(CodeUnknownTarget, s.ID, "%s references unknown state %q", field, target)
			}
		}

		checkTarget("next", s.Next)
		for i, c := range s.Conditions {
			checkTarget(fmt.Sprintf("conditions[%d].then", i), c.Then)
		}
		if s.HumanGate != nil {
			checkTarget("human_gate.on_approve", s.HumanGate.OnApprove)
			checkTarget("human_gate.on_reject", s.HumanGate.OnReject)
		}

		// A missing executor is caught at dispatch time; here we only
		// warn about names a declared agents section does not cover. A
		// document with no agents section delegates resolution entirely
		// to the executor collaborator, so nothing is warned.
		if s.Type == domain.StateTypeAgent && s.Executor != "" && len(aliases) > 0 && !aliases[s.Executor] {
			report.warnf(CodeUnknownAgent, s.ID, "executor %q is not among declared agents", s.Executor)
		}
	}

	if !wf.HasTerminal() {
		report.warnf(CodeNoTerminal, "", "workflow has no terminal state; executions can only end in failure")
	}

	return report
}

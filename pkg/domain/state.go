package domain

import (
	"maps"
	"time"
)

// Status defines the runtime mode of one execution.
type Status string

const (
	StatusRunning            Status = "running"
	StatusWaitingForTrigger  Status = "waiting_for_trigger"
	StatusWaitingForApproval Status = "waiting_for_approval"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// Terminal reports whether the status is absorbing (completed or failed).
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FeedbackKey is the reserved OutputData key under which human-gate
// rejection feedback is recorded.
const FeedbackKey = "human_feedback"

// RuntimeState is an immutable snapshot of one execution.
// Every transition produces a new value via the With* helpers; the engine
// never mutates a snapshot it has already emitted.
type RuntimeState struct {
	ExecutionID    string         `json:"execution_id"`
	WorkflowName   string         `json:"workflow_name"`
	CurrentStateID string         `json:"current_state_id"`
	Status         Status         `json:"status"`
	Input          string         `json:"input,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	LastUpdatedAt  time.Time      `json:"last_updated_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	IterationCount int            `json:"iteration_count"`
	OutputData     map[string]any `json:"output_data,omitempty"`
}

// NewRuntimeState creates the initial snapshot for an execution.
func NewRuntimeState(executionID, workflowName, startStateID, input string) RuntimeState {
	now := time.Now().UTC()
	return RuntimeState{
		ExecutionID:    executionID,
		WorkflowName:   workflowName,
		CurrentStateID: startStateID,
		Status:         StatusRunning,
		Input:          input,
		StartedAt:      now,
		LastUpdatedAt:  now,
		OutputData:     map[string]any{},
	}
}

// clone produces a copy with its own OutputData map so writers never alias
// an emitted snapshot.
func (s RuntimeState) clone() RuntimeState {
	out := s
	out.OutputData = maps.Clone(s.OutputData)
	if out.OutputData == nil {
		out.OutputData = map[string]any{}
	}
	out.LastUpdatedAt = time.Now().UTC()
	return out
}

// WithStatus returns a copy with the given status.
func (s RuntimeState) WithStatus(status Status) RuntimeState {
	out := s.clone()
	out.Status = status
	return out
}

// WithCurrentState returns a copy positioned at the given state id.
func (s RuntimeState) WithCurrentState(stateID string) RuntimeState {
	out := s.clone()
	out.CurrentStateID = stateID
	return out
}

// WithError returns a failed copy carrying the message.
func (s RuntimeState) WithError(msg string) RuntimeState {
	out := s.clone()
	out.Status = StatusFailed
	out.ErrorMessage = msg
	now := time.Now().UTC()
	out.CompletedAt = &now
	return out
}

// WithCompleted returns a completed copy with CompletedAt stamped.
func (s RuntimeState) WithCompleted() RuntimeState {
	out := s.clone()
	out.Status = StatusCompleted
	now := time.Now().UTC()
	out.CompletedAt = &now
	return out
}

// Touched returns a copy with only LastUpdatedAt refreshed.
func (s RuntimeState) Touched() RuntimeState {
	return s.clone()
}

// MergeOutput returns a copy with data merged into OutputData.
// Last writer wins on key collision.
func (s RuntimeState) MergeOutput(data map[string]any) RuntimeState {
	out := s.clone()
	for k, v := range data {
		out.OutputData[k] = v
	}
	return out
}

// WithIteration returns a copy with IterationCount incremented by one.
func (s RuntimeState) WithIteration() RuntimeState {
	out := s.clone()
	out.IterationCount++
	return out
}

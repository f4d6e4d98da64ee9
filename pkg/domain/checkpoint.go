package domain

import "time"

// Checkpoint is a persisted, resumable snapshot of one execution.
// It embeds the full workflow definition, not a reference, so a resume
// never depends on the original document still being available or
// unchanged. Storage cost is traded for resume simplicity.
type Checkpoint struct {
	ExecutionID    string         `json:"execution_id"`
	Workflow       Workflow       `json:"workflow"`
	CurrentStateID string         `json:"current_state_id"`
	Input          string         `json:"input,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	IterationCount int            `json:"iteration_count"`
	OutputData     map[string]any `json:"output_data,omitempty"`
	WorkDir        string         `json:"work_dir,omitempty"`
	SavedAt        time.Time      `json:"saved_at"`
}

// NewCheckpoint captures a snapshot and its definition into a checkpoint.
func NewCheckpoint(wf Workflow, state RuntimeState, workDir string) Checkpoint {
	return Checkpoint{
		ExecutionID:    state.ExecutionID,
		Workflow:       wf,
		CurrentStateID: state.CurrentStateID,
		Input:          state.Input,
		StartedAt:      state.StartedAt,
		IterationCount: state.IterationCount,
		OutputData:     state.OutputData,
		WorkDir:        workDir,
		SavedAt:        time.Now().UTC(),
	}
}

// RuntimeState reconstructs a running snapshot from the checkpoint.
// Status is forced to running: a resumed execution continues the loop at
// CurrentStateID exactly as if it had never stopped.
func (c Checkpoint) RuntimeState() RuntimeState {
	out := make(map[string]any, len(c.OutputData))
	for k, v := range c.OutputData {
		out[k] = v
	}
	return RuntimeState{
		ExecutionID:    c.ExecutionID,
		WorkflowName:   c.Workflow.Name,
		CurrentStateID: c.CurrentStateID,
		Status:         StatusRunning,
		Input:          c.Input,
		StartedAt:      c.StartedAt,
		LastUpdatedAt:  time.Now().UTC(),
		IterationCount: c.IterationCount,
		OutputData:     out,
	}
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Summary is a read-only digest of one live execution.
type Summary struct {
	ExecutionID    string        `json:"execution_id"`
	WorkflowName   string        `json:"workflow_name"`
	CurrentStateID string        `json:"current_state_id"`
	Status         domain.Status `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
}

// execution is the registry entry for one live execution.
type execution struct {
	id     string
	cancel context.CancelFunc

	// approval is a single-slot rendezvous between the loop's human-gate
	// wait and an external Approve call.
	approval chan domain.Decision

	mu       sync.RWMutex
	snapshot domain.RuntimeState
}

func (e *execution) current() domain.RuntimeState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

func (e *execution) update(s domain.RuntimeState) {
	e.mu.Lock()
	e.snapshot = s
	e.mu.Unlock()
}

// Registry tracks live executions for approval delivery, cancellation and
// status queries. Reads are best-effort snapshots, eventually consistent
// with the loop's progress.
type Registry struct {
	mu         sync.RWMutex
	executions map[string]*execution
}

// NewRegistry creates an empty execution registry.
func NewRegistry() *Registry {
	return &Registry{executions: make(map[string]*execution)}
}

func (r *Registry) add(exec *execution) {
	r.mu.Lock()
	r.executions[exec.id] = exec
	r.mu.Unlock()
}

func (r *Registry) remove(executionID string) {
	r.mu.Lock()
	delete(r.executions, executionID)
	r.mu.Unlock()
}

func (r *Registry) get(executionID string) (*execution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executions[executionID]
	return exec, ok
}

// GetState returns the latest snapshot of a live execution.
func (r *Registry) GetState(executionID string) (domain.RuntimeState, error) {
	exec, ok := r.get(executionID)
	if !ok {
		return domain.RuntimeState{}, domain.ErrExecutionNotFound
	}
	return exec.current(), nil
}

// ListActive returns a summary per live execution, in no particular order.
func (r *Registry) ListActive() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]Summary, 0, len(r.executions))
	for _, exec := range r.executions {
		s := exec.current()
		summaries = append(summaries, Summary{
			ExecutionID:    s.ExecutionID,
			WorkflowName:   s.WorkflowName,
			CurrentStateID: s.CurrentStateID,
			Status:         s.Status,
			StartedAt:      s.StartedAt,
		})
	}
	return summaries
}

// Approve delivers an approval decision to an execution paused at a human
// gate. It fails with domain.ErrExecutionNotFound for unknown ids and
// domain.ErrNotWaitingForApproval when the execution is not paused.
func (r *Registry) Approve(executionID string, decision domain.Decision) error {
	exec, ok := r.get(executionID)
	if !ok {
		return domain.ErrExecutionNotFound
	}
	if exec.current().Status != domain.StatusWaitingForApproval {
		return domain.ErrNotWaitingForApproval
	}

	select {
	case exec.approval <- decision:
		return nil
	default:
		// The slot is already occupied: a decision raced us and won.
		return domain.ErrNotWaitingForApproval
	}
}

// Cancel signals cooperative cancellation to an execution. A pending
// approval wait unwinds as cancelled.
func (r *Registry) Cancel(executionID string) error {
	exec, ok := r.get(executionID)
	if !ok {
		return domain.ErrExecutionNotFound
	}
	exec.cancel()
	return nil
}

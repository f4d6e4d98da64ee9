package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/adapters/memory"
	"github.com/aretw0/espalier/internal/engine"
	"github.com/aretw0/espalier/pkg/domain"
)

// scriptedExecutor maps executor names to canned behaviors and records
// every call.
type scriptedExecutor struct {
	mu    sync.Mutex
	calls []string
	fns   map[string]func() (domain.ExecutorResult, error)
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{fns: make(map[string]func() (domain.ExecutorResult, error))}
}

func (s *scriptedExecutor) on(name string, fn func() (domain.ExecutorResult, error)) *scriptedExecutor {
	s.fns[name] = fn
	return s
}

func (s *scriptedExecutor) returns(name string, data map[string]any) *scriptedExecutor {
	return s.on(name, func() (domain.ExecutorResult, error) {
		return domain.ExecutorResult{Success: true, Data: data}, nil
	})
}

func (s *scriptedExecutor) Execute(ctx context.Context, name, input string, contextData map[string]any) (domain.ExecutorResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	fn, ok := s.fns[name]
	s.mu.Unlock()
	if !ok {
		return domain.ExecutorResult{}, fmt.Errorf("no script for executor %s", name)
	}
	return fn()
}

func (s *scriptedExecutor) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func drain(snapshots <-chan domain.RuntimeState) []domain.RuntimeState {
	var out []domain.RuntimeState
	for s := range snapshots {
		out = append(out, s)
	}
	return out
}

// awaitStatus consumes the stream until a snapshot with the wanted status
// arrives.
func awaitStatus(t *testing.T, snapshots <-chan domain.RuntimeState, status domain.Status) domain.RuntimeState {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-snapshots:
			require.True(t, ok, "stream closed before reaching status %s", status)
			if s.Status == status {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", status)
		}
	}
}

func visitedRunning(snapshots []domain.RuntimeState) []string {
	var out []string
	for _, s := range snapshots {
		if s.Status == domain.StatusRunning {
			out = append(out, s.CurrentStateID)
		}
	}
	return out
}

func linearWorkflow() *domain.Workflow {
	return &domain.Workflow{
		Name: "linear",
		States: []domain.State{
			{ID: "init", Type: domain.StateTypeStart, Next: "check"},
			{ID: "check", Type: domain.StateTypeAgent, Executor: "checker", Conditions: []domain.Transition{
				{If: "build.success", Then: "done"},
				{Then: "broken", IsDefault: true},
			}},
			{ID: "done", Type: domain.StateTypeTerminal},
			{ID: "broken", Type: domain.StateTypeTerminal},
		},
	}
}

func TestEngine_LinearExecution(t *testing.T) {
	executor := newScriptedExecutor().returns("checker", map[string]any{"build_success": true})
	eng := engine.New(executor)

	executionID, snapshots, err := eng.Start(context.Background(), linearWorkflow(), "ship it")
	require.NoError(t, err)
	require.NotEmpty(t, executionID)

	all := drain(snapshots)
	require.NotEmpty(t, all)

	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "done", final.CurrentStateID)
	assert.Equal(t, "ship it", final.Input)
	assert.Equal(t, true, final.OutputData["build_success"])
	assert.Equal(t, 1, final.IterationCount)

	assert.Equal(t, []string{"init", "check"}, visitedRunning(all))
	assert.Equal(t, 1, executor.callCount("checker"))
}

func TestEngine_ConditionalBranchOnFailure(t *testing.T) {
	executor := newScriptedExecutor().returns("checker", map[string]any{"build_success": false})
	eng := engine.New(executor)

	_, snapshots, err := eng.Start(context.Background(), linearWorkflow(), "")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "broken", final.CurrentStateID, "default transition must win when the condition is false")
}

func TestEngine_StartRejectsInvalidWorkflow(t *testing.T) {
	wf := &domain.Workflow{Name: "bad", States: []domain.State{
		{ID: "init", Type: domain.StateTypeStart, Next: "ghost"},
	}}
	eng := engine.New(newScriptedExecutor())

	_, _, err := eng.Start(context.Background(), wf, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
}

func TestEngine_ExecutorFailureFailsExecution(t *testing.T) {
	executor := newScriptedExecutor().on("checker", func() (domain.ExecutorResult, error) {
		return domain.ExecutorResult{Success: false, ErrorMessage: "compile error"}, nil
	})
	eng := engine.New(executor)

	_, snapshots, err := eng.Start(context.Background(), linearWorkflow(), "")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "executor checker failed")
	assert.Contains(t, final.ErrorMessage, "compile error")
}

func TestEngine_MissingExecutorDefinition(t *testing.T) {
	wf := &domain.Workflow{Name: "no-exec", States: []domain.State{
		{ID: "work", Type: domain.StateTypeAgent, Next: "done"},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}
	eng := engine.New(newScriptedExecutor())

	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	final := drain(snapshots)[0]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "has no executor")
}

func TestEngine_ParallelFanOut(t *testing.T) {
	executor := newScriptedExecutor().
		returns("lint", map[string]any{"lint_ok": true, "winner": "lint"}).
		returns("test", map[string]any{"test_ok": true, "winner": "test"}).
		returns("scan", map[string]any{"scan_ok": true, "winner": "scan"})

	wf := &domain.Workflow{Name: "fanout", States: []domain.State{
		{ID: "init", Type: domain.StateTypeStart, Next: "verify"},
		{ID: "verify", Type: domain.StateTypeParallel, Executors: []string{"lint", "test", "scan"}, Next: "done"},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(executor)
	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	require.Equal(t, domain.StatusCompleted, final.Status)

	for _, name := range []string{"lint", "test", "scan"} {
		assert.Equal(t, 1, executor.callCount(name), "executor %s must run exactly once", name)
	}
	assert.Equal(t, true, final.OutputData["lint_ok"])
	assert.Equal(t, true, final.OutputData["test_ok"])
	assert.Equal(t, true, final.OutputData["scan_ok"])
	// Declared order wins on key collisions, not completion order.
	assert.Equal(t, "scan", final.OutputData["winner"])
	// A parallel state counts as one iteration, not one per branch.
	assert.Equal(t, 1, final.IterationCount)
}

func TestEngine_ParallelBranchFailure(t *testing.T) {
	executor := newScriptedExecutor().
		returns("lint", map[string]any{"lint_ok": true}).
		on("test", func() (domain.ExecutorResult, error) {
			return domain.ExecutorResult{}, errors.New("segfault")
		})

	wf := &domain.Workflow{Name: "fanout", States: []domain.State{
		{ID: "verify", Type: domain.StateTypeParallel, Executors: []string{"lint", "test"}, Next: "done"},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(executor)
	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	final := drain(snapshots)[0]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "executor test failed")
}

func gatedWorkflow(timeout time.Duration) *domain.Workflow {
	return &domain.Workflow{
		Name: "gated",
		States: []domain.State{
			{ID: "init", Type: domain.StateTypeStart, Next: "review"},
			{ID: "review", Type: domain.StateTypeHumanGate, HumanGate: &domain.HumanGate{
				Timeout:   timeout,
				OnApprove: "done",
				OnReject:  "rejected",
			}},
			{ID: "done", Type: domain.StateTypeTerminal},
			{ID: "rejected", Type: domain.StateTypeTerminal},
		},
	}
}

func TestEngine_HumanGateApproval(t *testing.T) {
	eng := engine.New(newScriptedExecutor())

	executionID, snapshots, err := eng.Start(context.Background(), gatedWorkflow(time.Minute), "")
	require.NoError(t, err)

	paused := awaitStatus(t, snapshots, domain.StatusWaitingForApproval)
	assert.Equal(t, "review", paused.CurrentStateID)

	require.NoError(t, eng.Registry().Approve(executionID, domain.Decision{Approved: true}))

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "done", final.CurrentStateID)
}

func TestEngine_HumanGateRejection(t *testing.T) {
	eng := engine.New(newScriptedExecutor())

	executionID, snapshots, err := eng.Start(context.Background(), gatedWorkflow(time.Minute), "")
	require.NoError(t, err)

	awaitStatus(t, snapshots, domain.StatusWaitingForApproval)
	require.NoError(t, eng.Registry().Approve(executionID, domain.Decision{
		Approved: false,
		Feedback: "needs more tests",
	}))

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "rejected", final.CurrentStateID)
	assert.Equal(t, "needs more tests", final.OutputData[domain.FeedbackKey])
}

func TestEngine_HumanGateTimeout(t *testing.T) {
	eng := engine.New(newScriptedExecutor())

	_, snapshots, err := eng.Start(context.Background(), gatedWorkflow(50*time.Millisecond), "")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "approval timeout exceeded")
}

func TestEngine_ApproveErrors(t *testing.T) {
	eng := engine.New(newScriptedExecutor())

	t.Run("unknown execution", func(t *testing.T) {
		err := eng.Registry().Approve("no-such-id", domain.Decision{Approved: true})
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
	})

	t.Run("not waiting for approval", func(t *testing.T) {
		// An execution stuck on a trigger is live but not approvable.
		wf := &domain.Workflow{Name: "stuck", States: []domain.State{
			{ID: "work", Type: domain.StateTypeAgent, Executor: "worker", Next: "done",
				Trigger: &domain.Trigger{Type: domain.TriggerFileExists, Path: "never.signal"}},
			{ID: "done", Type: domain.StateTypeTerminal},
		}}
		stuckEng := engine.New(newScriptedExecutor(),
			engine.WithWorkDir(t.TempDir()),
			engine.WithTriggerPollInterval(10*time.Millisecond),
		)

		executionID, snapshots, err := stuckEng.Start(context.Background(), wf, "")
		require.NoError(t, err)
		awaitStatus(t, snapshots, domain.StatusWaitingForTrigger)

		err = stuckEng.Registry().Approve(executionID, domain.Decision{Approved: true})
		assert.ErrorIs(t, err, domain.ErrNotWaitingForApproval)

		require.NoError(t, stuckEng.Registry().Cancel(executionID))
		drain(snapshots)
	})
}

func TestEngine_TriggerGate(t *testing.T) {
	dir := t.TempDir()
	executor := newScriptedExecutor().returns("worker", map[string]any{"worked": true})

	wf := &domain.Workflow{Name: "triggered", States: []domain.State{
		{ID: "init", Type: domain.StateTypeStart, Next: "work"},
		{ID: "work", Type: domain.StateTypeAgent, Executor: "worker", Next: "done",
			Trigger: &domain.Trigger{Type: domain.TriggerFileExists, Path: "go.signal"}},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(executor,
		engine.WithWorkDir(dir),
		engine.WithTriggerPollInterval(10*time.Millisecond),
	)

	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	paused := awaitStatus(t, snapshots, domain.StatusWaitingForTrigger)
	assert.Equal(t, "work", paused.CurrentStateID)
	assert.Equal(t, 0, executor.callCount("worker"), "gate must hold the executor back")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.signal"), []byte("x"), 0644))

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, 1, executor.callCount("worker"))
}

func TestEngine_TriggerMaxWait(t *testing.T) {
	wf := &domain.Workflow{Name: "stuck", States: []domain.State{
		{ID: "work", Type: domain.StateTypeAgent, Executor: "worker", Next: "done",
			Trigger: &domain.Trigger{Type: domain.TriggerFileExists, Path: "never.signal"}},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(newScriptedExecutor(),
		engine.WithWorkDir(t.TempDir()),
		engine.WithTriggerPollInterval(10*time.Millisecond),
		engine.WithTriggerMaxWait(50*time.Millisecond),
	)

	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "trigger wait exceeded")
}

func TestEngine_UnsupportedTriggerFails(t *testing.T) {
	wf := &domain.Workflow{Name: "expr-trigger", States: []domain.State{
		{ID: "work", Type: domain.StateTypeAgent, Executor: "worker", Next: "done",
			Trigger: &domain.Trigger{Type: domain.TriggerExpression, Expression: "x > 1"}},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(newScriptedExecutor())
	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	final := drain(snapshots)[0]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "trigger evaluation failed")
}

func TestEngine_Cancellation(t *testing.T) {
	eng := engine.New(newScriptedExecutor())

	executionID, snapshots, err := eng.Start(context.Background(), gatedWorkflow(time.Minute), "")
	require.NoError(t, err)

	awaitStatus(t, snapshots, domain.StatusWaitingForApproval)
	require.NoError(t, eng.Registry().Cancel(executionID))

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "execution cancelled")

	// The registry forgets finished executions.
	assert.ErrorIs(t, eng.Registry().Cancel(executionID), domain.ErrExecutionNotFound)
}

func TestEngine_EscalationState(t *testing.T) {
	wf := &domain.Workflow{Name: "escalate", States: []domain.State{
		{ID: "panic", Type: domain.StateTypeEscalation},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(newScriptedExecutor())
	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	final := drain(snapshots)[0]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "escalated at state panic")
}

func TestEngine_UnknownStateType(t *testing.T) {
	wf := &domain.Workflow{Name: "odd", States: []domain.State{
		{ID: "weird", Type: "teleport"},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	eng := engine.New(newScriptedExecutor())
	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	final := drain(snapshots)[0]
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, `unknown state type "teleport"`)
}

func TestEngine_RegistryQueries(t *testing.T) {
	eng := engine.New(newScriptedExecutor())

	executionID, snapshots, err := eng.Start(context.Background(), gatedWorkflow(time.Minute), "payload")
	require.NoError(t, err)
	awaitStatus(t, snapshots, domain.StatusWaitingForApproval)

	state, err := eng.Registry().GetState(executionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingForApproval, state.Status)
	assert.Equal(t, "review", state.CurrentStateID)

	active := eng.Registry().ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, executionID, active[0].ExecutionID)
	assert.Equal(t, "gated", active[0].WorkflowName)

	require.NoError(t, eng.Registry().Cancel(executionID))
	drain(snapshots)

	_, err = eng.Registry().GetState(executionID)
	assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
	assert.Empty(t, eng.Registry().ListActive())
}

func TestEngine_CheckpointAndResume(t *testing.T) {
	store := memory.NewStore()

	var mu sync.Mutex
	attempts := 0
	executor := newScriptedExecutor().on("worker", func() (domain.ExecutorResult, error) {
		mu.Lock()
		attempts++
		failing := attempts == 1
		mu.Unlock()
		if failing {
			return domain.ExecutorResult{Success: false, ErrorMessage: "transient outage"}, nil
		}
		return domain.ExecutorResult{Success: true, Data: map[string]any{"worked": true}}, nil
	})

	wf := &domain.Workflow{
		Name: "durable",
		States: []domain.State{
			{ID: "init", Type: domain.StateTypeStart, Next: "work"},
			{ID: "work", Type: domain.StateTypeAgent, Executor: "worker", Next: "done"},
			{ID: "done", Type: domain.StateTypeTerminal},
		},
		Settings: domain.DefaultSettings(),
	}

	eng := engine.New(executor, engine.WithCheckpointStore(store))
	ctx := context.Background()

	executionID, snapshots, err := eng.Start(ctx, wf, "payload")
	require.NoError(t, err)

	all := drain(snapshots)
	require.Equal(t, domain.StatusFailed, all[len(all)-1].Status)

	// The failure left the last successful checkpoint behind.
	ok, err := store.Exists(ctx, executionID)
	require.NoError(t, err)
	require.True(t, ok)

	snapshots, err = eng.Resume(ctx, executionID)
	require.NoError(t, err)

	all = drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "payload", final.Input, "input must survive the checkpoint round-trip")
	assert.Equal(t, true, final.OutputData["worked"])

	// Completion cleans the checkpoint up.
	ok, err = store.Exists(ctx, executionID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_ResumeUsesCheckpointedWorkDir(t *testing.T) {
	store := memory.NewStore()
	executor := newScriptedExecutor().returns("worker", map[string]any{"worked": true})

	originalDir := t.TempDir()
	wf := &domain.Workflow{
		Name: "relocated",
		States: []domain.State{
			{ID: "init", Type: domain.StateTypeStart, Next: "work"},
			{ID: "work", Type: domain.StateTypeAgent, Executor: "worker", Next: "done",
				Trigger: &domain.Trigger{Type: domain.TriggerFileExists, Path: "go.signal"}},
			{ID: "done", Type: domain.StateTypeTerminal},
		},
		Settings: domain.DefaultSettings(),
	}

	// A checkpoint written by an engine that ran in originalDir.
	paused := domain.NewRuntimeState("exec-relocated", wf.Name, "work", "")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.NewCheckpoint(*wf, paused, originalDir)))
	require.NoError(t, os.WriteFile(filepath.Join(originalDir, "go.signal"), []byte("x"), 0644))

	// The resuming engine points somewhere else entirely; the trigger must
	// still resolve against the checkpointed directory.
	eng := engine.New(executor,
		engine.WithCheckpointStore(store),
		engine.WithWorkDir(t.TempDir()),
		engine.WithTriggerPollInterval(10*time.Millisecond),
		engine.WithTriggerMaxWait(500*time.Millisecond),
	)

	snapshots, err := eng.Resume(ctx, "exec-relocated")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, 1, executor.callCount("worker"))
}

func TestEngine_ResumeErrors(t *testing.T) {
	t.Run("no store configured", func(t *testing.T) {
		eng := engine.New(newScriptedExecutor())
		_, err := eng.Resume(context.Background(), "whatever")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checkpoint store")
	})

	t.Run("unknown checkpoint", func(t *testing.T) {
		eng := engine.New(newScriptedExecutor(), engine.WithCheckpointStore(memory.NewStore()))
		_, err := eng.Resume(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("live execution", func(t *testing.T) {
		store := memory.NewStore()
		eng := engine.New(newScriptedExecutor(), engine.WithCheckpointStore(store))

		wf := gatedWorkflow(time.Minute)
		wf.Settings = domain.DefaultSettings()
		executionID, snapshots, err := eng.Start(context.Background(), wf, "")
		require.NoError(t, err)
		awaitStatus(t, snapshots, domain.StatusWaitingForApproval)

		_, err = eng.Resume(context.Background(), executionID)
		assert.ErrorIs(t, err, domain.ErrExecutionActive)

		require.NoError(t, eng.Registry().Cancel(executionID))
		drain(snapshots)
	})
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var entered, executors []string

	hooks := domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, ev *domain.StateEvent) {
			mu.Lock()
			entered = append(entered, ev.StateID)
			mu.Unlock()
		},
		OnExecutorReturn: func(ctx context.Context, ev *domain.ExecutorEvent) {
			mu.Lock()
			executors = append(executors, ev.Executor)
			mu.Unlock()
			assert.False(t, ev.IsError)
			assert.GreaterOrEqual(t, ev.Duration, time.Duration(0))
		},
	}

	executor := newScriptedExecutor().returns("checker", map[string]any{"build_success": true})
	eng := engine.New(executor, engine.WithLifecycleHooks(hooks))

	_, snapshots, err := eng.Start(context.Background(), linearWorkflow(), "")
	require.NoError(t, err)
	drain(snapshots)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"init", "check", "done"}, entered)
	assert.Equal(t, []string{"checker"}, executors)
}

func TestEngine_NoOutgoingEdgeCompletes(t *testing.T) {
	wf := &domain.Workflow{Name: "dangling", States: []domain.State{
		{ID: "work", Type: domain.StateTypeAgent, Executor: "worker"},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}

	executor := newScriptedExecutor().returns("worker", map[string]any{"worked": true})
	eng := engine.New(executor)

	_, snapshots, err := eng.Start(context.Background(), wf, "")
	require.NoError(t, err)

	all := drain(snapshots)
	final := all[len(all)-1]
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, "work", final.CurrentStateID)
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/espalier/internal/expr"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/trigger"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// DefaultTriggerPollInterval is how long the loop sleeps between trigger
// re-evaluations when a gate is unsatisfied.
const DefaultTriggerPollInterval = 5 * time.Second

// Engine executes workflows. One Engine serves many concurrent
// executions; per-execution state lives in the Registry.
type Engine struct {
	executor ports.AgentExecutor
	store    ports.CheckpointStore
	triggers *trigger.Registry
	registry *Registry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	pollInterval   time.Duration
	triggerMaxWait time.Duration // zero means wait forever
	workDir        string
}

// Option configures the Engine.
type Option func(*Engine)

// WithCheckpointStore enables checkpoint persistence.
func WithCheckpointStore(store ports.CheckpointStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithTriggerRegistry replaces the default trigger evaluator registry.
func WithTriggerRegistry(reg *trigger.Registry) Option {
	return func(e *Engine) { e.triggers = reg }
}

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithTriggerPollInterval overrides the delay between trigger polls.
func WithTriggerPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithTriggerMaxWait bounds how long a trigger may stay unsatisfied
// before the execution fails. Zero (the default) waits forever.
func WithTriggerMaxWait(d time.Duration) Option {
	return func(e *Engine) { e.triggerMaxWait = d }
}

// WithWorkDir sets the working directory relative trigger paths resolve
// against.
func WithWorkDir(dir string) Option {
	return func(e *Engine) { e.workDir = dir }
}

// New creates an Engine around an executor collaborator.
func New(executor ports.AgentExecutor, opts ...Option) *Engine {
	e := &Engine{
		executor:     executor,
		triggers:     trigger.NewRegistry(),
		registry:     NewRegistry(),
		logger:       logging.NewNop(),
		pollInterval: DefaultTriggerPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the execution registry for approval, cancellation and
// status queries.
func (e *Engine) Registry() *Registry { return e.registry }

// Start validates the workflow and launches a new execution. The returned
// channel yields every runtime snapshot in causal order and is closed
// when the execution reaches a terminal status.
func (e *Engine) Start(ctx context.Context, wf *domain.Workflow, input string) (string, <-chan domain.RuntimeState, error) {
	report := validator.Validate(wf)
	if !report.IsValid() {
		return "", nil, fmt.Errorf("workflow %q failed validation: %s", wf.Name, report.Errors[0])
	}
	for _, w := range report.Warnings {
		e.logger.Warn("workflow validation warning", "workflow", wf.Name, "issue", w.String())
	}

	executionID := uuid.NewString()
	state := domain.NewRuntimeState(executionID, wf.Name, wf.StartStateID(), input)
	return executionID, e.launch(ctx, wf, state, e.workDir), nil
}

// Resume reconstructs an execution from its latest checkpoint and
// continues the loop at the checkpointed state. The workflow definition
// travels inside the checkpoint, so no document or re-validation is
// needed.
func (e *Engine) Resume(ctx context.Context, executionID string) (<-chan domain.RuntimeState, error) {
	if e.store == nil {
		return nil, fmt.Errorf("resume requires a checkpoint store")
	}
	if _, live := e.registry.get(executionID); live {
		return nil, fmt.Errorf("%w: %s", domain.ErrExecutionActive, executionID)
	}

	cp, err := e.store.Load(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint for %s: %w", executionID, err)
	}

	wf := cp.Workflow
	state := cp.RuntimeState()
	// Trigger paths resolve against the checkpointed working directory so
	// the continuation behaves like the paused execution, not like the
	// resuming process.
	workDir := cp.WorkDir
	if workDir == "" {
		workDir = e.workDir
	}
	e.logger.Info("resuming execution",
		"execution_id", executionID,
		"workflow", wf.Name,
		"state", state.CurrentStateID,
		"work_dir", workDir,
	)
	return e.launch(ctx, &wf, state, workDir), nil
}

// launch registers the execution and starts its loop goroutine.
func (e *Engine) launch(ctx context.Context, wf *domain.Workflow, state domain.RuntimeState, workDir string) <-chan domain.RuntimeState {
	execCtx, cancel := context.WithCancel(ctx)
	exec := &execution{
		id:       state.ExecutionID,
		cancel:   cancel,
		approval: make(chan domain.Decision, 1),
		snapshot: state,
	}
	e.registry.add(exec)

	out := make(chan domain.RuntimeState)
	go func() {
		defer close(out)
		defer cancel()
		defer e.registry.remove(exec.id)
		e.run(execCtx, wf, exec, state, out, workDir)
	}()
	return out
}

// emit publishes a snapshot to the registry and the consumer channel.
// Publication happens before the loop advances, which is what guarantees
// causal ordering of the emitted sequence. Terminal snapshots must not be
// lost to a cancelled context, so they take the bounded-grace path.
func (e *Engine) emit(ctx context.Context, exec *execution, out chan<- domain.RuntimeState, state domain.RuntimeState) {
	if state.Status.Terminal() {
		e.emitFinal(exec, out, state)
		return
	}
	exec.update(state)
	select {
	case out <- state:
	case <-ctx.Done():
	}
}

// emitFinal delivers a terminal snapshot even when the execution context
// is already cancelled, with a bounded grace period so an abandoned
// consumer cannot pin the goroutine.
func (e *Engine) emitFinal(exec *execution, out chan<- domain.RuntimeState, state domain.RuntimeState) {
	exec.update(state)
	select {
	case out <- state:
	case <-time.After(time.Second):
	}
}

// run is the main loop of one execution.
func (e *Engine) run(ctx context.Context, wf *domain.Workflow, exec *execution, state domain.RuntimeState, out chan<- domain.RuntimeState, workDir string) {
	for state.Status == domain.StatusRunning {
		if ctx.Err() != nil {
			state = state.WithError("execution cancelled")
			e.emitFinal(exec, out, state)
			return
		}

		stateDef := wf.StateByID(state.CurrentStateID)
		if stateDef == nil {
			state = state.WithError(fmt.Sprintf("state not found: %s", state.CurrentStateID))
			e.emit(ctx, exec, out, state)
			return
		}

		if stateDef.Trigger != nil {
			satisfied, failed := e.awaitTrigger(ctx, exec, out, &state, stateDef, workDir)
			if failed {
				e.emit(ctx, exec, out, state)
				return
			}
			if !satisfied {
				// Cancelled mid-wait.
				state = state.WithError("execution cancelled")
				e.emitFinal(exec, out, state)
				return
			}
		}

		e.emitStateEnter(ctx, &state, stateDef)

		next, dispatched := e.dispatch(ctx, wf, exec, out, &state, stateDef)

		e.emitStateLeave(ctx, &state, stateDef)

		e.emit(ctx, exec, out, state)
		if !dispatched || state.Status.Terminal() {
			if state.Status == domain.StatusCompleted && e.store != nil {
				// Best-effort cleanup; a stale checkpoint for a finished
				// execution is harmless but confusing.
				if err := e.store.Delete(context.Background(), state.ExecutionID); err != nil {
					e.logger.Warn("failed to delete checkpoint", "execution_id", state.ExecutionID, "err", err)
				}
			}
			return
		}

		if wf.Settings.EnableCheckpointing && e.store != nil {
			cp := domain.NewCheckpoint(*wf, state, workDir)
			if err := e.store.Save(ctx, cp); err != nil {
				state = state.WithError(fmt.Sprintf("checkpoint save failed: %v", err))
				e.emit(ctx, exec, out, state)
				return
			}
		}

		if next == "" {
			next = e.nextStateID(&state, stateDef)
		}
		if next == "" {
			// No outgoing edge: the machine has nowhere to go. Treated as
			// completion rather than spinning on the same state forever.
			state = state.WithCompleted()
			e.emit(ctx, exec, out, state)
			return
		}
		state = state.WithCurrentState(next)
	}
}

// awaitTrigger polls the state's trigger until it passes. Returns
// satisfied=false when the context was cancelled; failed=true when the
// evaluation errored or the bounded wait was exceeded (state already
// carries the failure).
func (e *Engine) awaitTrigger(ctx context.Context, exec *execution, out chan<- domain.RuntimeState, state *domain.RuntimeState, stateDef *domain.State, workDir string) (satisfied, failed bool) {
	deadline := time.Time{}
	if e.triggerMaxWait > 0 {
		deadline = time.Now().Add(e.triggerMaxWait)
	}

	waiting := false
	for {
		ok, err := e.triggers.Evaluate(ctx, *stateDef.Trigger, workDir)
		if err != nil {
			*state = state.WithError(fmt.Sprintf("trigger evaluation failed: %v", err))
			return false, true
		}
		if ok {
			if waiting {
				*state = state.WithStatus(domain.StatusRunning)
			}
			return true, false
		}

		if !waiting {
			waiting = true
			*state = state.WithStatus(domain.StatusWaitingForTrigger)
			e.emit(ctx, exec, out, *state)
			e.logger.Debug("waiting for trigger",
				"execution_id", state.ExecutionID,
				"state", stateDef.ID,
				"trigger", stateDef.Trigger.Type,
			)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			*state = state.WithError(fmt.Sprintf("trigger wait exceeded %s", e.triggerMaxWait))
			return false, true
		}

		select {
		case <-time.After(e.pollInterval):
		case <-ctx.Done():
			return false, false
		}
	}
}

// dispatch executes one state. It returns an explicit next-state override
// (used by human gates) and whether the loop should compute a transition;
// failure and completion are recorded directly on the snapshot.
func (e *Engine) dispatch(ctx context.Context, wf *domain.Workflow, exec *execution, out chan<- domain.RuntimeState, state *domain.RuntimeState, stateDef *domain.State) (next string, dispatched bool) {
	switch stateDef.Type {
	case domain.StateTypeStart, "":
		*state = state.Touched()
		return "", true

	case domain.StateTypeAgent:
		if stateDef.Executor == "" {
			*state = state.WithError(fmt.Sprintf("agent state %s has no executor", stateDef.ID))
			return "", false
		}
		data, err := e.invoke(ctx, wf, state, stateDef, stateDef.Executor)
		if err != nil {
			*state = state.WithError(err.Error())
			return "", false
		}
		*state = state.MergeOutput(data).WithIteration()
		return "", true

	case domain.StateTypeParallel:
		if len(stateDef.Executors) == 0 {
			*state = state.WithError(fmt.Sprintf("parallel state %s has no executors", stateDef.ID))
			return "", false
		}
		if err := e.fanOut(ctx, wf, state, stateDef); err != nil {
			*state = state.WithError(err.Error())
			return "", false
		}
		return "", true

	case domain.StateTypeHumanGate:
		return e.awaitApproval(ctx, exec, out, state, stateDef)

	case domain.StateTypeEscalation:
		*state = state.WithError(fmt.Sprintf("escalated at state %s", stateDef.ID))
		return "", false

	case domain.StateTypeTerminal:
		*state = state.WithCompleted()
		return "", false

	default:
		*state = state.WithError(fmt.Sprintf("unknown state type %q at %s", stateDef.Type, stateDef.ID))
		return "", false
	}
}

// invoke runs one executor with the state's per-step timeout applied.
func (e *Engine) invoke(ctx context.Context, wf *domain.Workflow, state *domain.RuntimeState, stateDef *domain.State, name string) (map[string]any, error) {
	timeout := stateDef.Timeout
	if timeout == 0 {
		timeout = wf.Settings.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e.emitExecutorCall(ctx, state, stateDef, name)
	started := time.Now()
	result, err := e.executor.Execute(ctx, name, state.Input, state.OutputData)
	e.emitExecutorReturn(ctx, state, stateDef, name, time.Since(started), err != nil || !result.Success)

	if err != nil {
		return nil, fmt.Errorf("executor %s failed: %w", name, err)
	}
	if !result.Success && result.ErrorMessage != "" {
		return nil, fmt.Errorf("executor %s failed: %s", name, result.ErrorMessage)
	}
	return result.Data, nil
}

// fanOut invokes every listed executor concurrently and joins all of
// them. Merge order is the declared order, so later entries win on key
// collisions regardless of completion order.
func (e *Engine) fanOut(ctx context.Context, wf *domain.Workflow, state *domain.RuntimeState, stateDef *domain.State) error {
	n := len(stateDef.Executors)
	results := make([]map[string]any, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i, name := range stateDef.Executors {
		go func(i int, name string) {
			defer wg.Done()
			results[i], errs[i] = e.invoke(ctx, wf, state, stateDef, name)
		}(i, name)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	merged := *state
	for _, data := range results {
		merged = merged.MergeOutput(data)
	}
	*state = merged.WithIteration()
	return nil
}

// awaitApproval pauses at a human gate until a decision, a timeout or a
// cancellation resolves it.
func (e *Engine) awaitApproval(ctx context.Context, exec *execution, out chan<- domain.RuntimeState, state *domain.RuntimeState, stateDef *domain.State) (next string, dispatched bool) {
	gate := stateDef.HumanGate
	timeout := domain.DefaultHumanGateTimeout
	if gate != nil && gate.Timeout > 0 {
		timeout = gate.Timeout
	}

	*state = state.WithStatus(domain.StatusWaitingForApproval)
	e.emit(ctx, exec, out, *state)
	e.logger.Info("waiting for approval",
		"execution_id", state.ExecutionID,
		"state", stateDef.ID,
		"timeout", timeout,
	)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case decision := <-exec.approval:
		if decision.Approved {
			next = ""
			if gate != nil {
				next = gate.OnApprove
			}
			if next == "" {
				next = stateDef.Next
			}
			*state = state.WithStatus(domain.StatusRunning)
			return next, true
		}

		if decision.Feedback != "" {
			*state = state.MergeOutput(map[string]any{domain.FeedbackKey: decision.Feedback})
		}
		next = ""
		if gate != nil {
			next = gate.OnReject
		}
		if next == "" {
			next = stateDef.Next
		}
		*state = state.WithStatus(domain.StatusRunning)
		return next, true

	case <-timer.C:
		*state = state.WithError("approval timeout exceeded")
		return "", false

	case <-ctx.Done():
		*state = state.WithError("execution cancelled")
		return "", false
	}
}

// nextStateID picks the transition target: conditions in declared order
// first (skipping the default entry), then the default entry, then Next.
func (e *Engine) nextStateID(state *domain.RuntimeState, stateDef *domain.State) string {
	var fallback string
	for _, c := range stateDef.Conditions {
		if c.IsDefault {
			if fallback == "" {
				fallback = c.Then
			}
			continue
		}
		if expr.Evaluate(c.If, *state) {
			return c.Then
		}
	}
	if fallback != "" {
		return fallback
	}
	return stateDef.Next
}

// --- Lifecycle hook emission ---

func (e *Engine) emitStateEnter(ctx context.Context, state *domain.RuntimeState, stateDef *domain.State) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateEnter, ExecutionID: state.ExecutionID},
		StateID:   stateDef.ID,
		StateType: stateDef.Type,
		Status:    state.Status,
	})
}

func (e *Engine) emitStateLeave(ctx context.Context, state *domain.RuntimeState, stateDef *domain.State) {
	if e.hooks.OnStateLeave == nil {
		return
	}
	e.hooks.OnStateLeave(ctx, &domain.StateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateLeave, ExecutionID: state.ExecutionID},
		StateID:   stateDef.ID,
		StateType: stateDef.Type,
		Status:    state.Status,
	})
}

func (e *Engine) emitExecutorCall(ctx context.Context, state *domain.RuntimeState, stateDef *domain.State, name string) {
	if e.hooks.OnExecutorCall == nil {
		return
	}
	e.hooks.OnExecutorCall(ctx, &domain.ExecutorEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventExecutorCall, ExecutionID: state.ExecutionID},
		StateID:   stateDef.ID,
		Executor:  name,
	})
}

func (e *Engine) emitExecutorReturn(ctx context.Context, state *domain.RuntimeState, stateDef *domain.State, name string, d time.Duration, isErr bool) {
	if e.hooks.OnExecutorReturn == nil {
		return
	}
	e.hooks.OnExecutorReturn(ctx, &domain.ExecutorEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventExecutorReturn, ExecutionID: state.ExecutionID},
		StateID:   stateDef.ID,
		Executor:  name,
		Duration:  d,
		IsError:   isErr,
	})
}

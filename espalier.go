package espalier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/espalier/internal/engine"
	"github.com/aretw0/espalier/internal/loader"
	"github.com/aretw0/espalier/internal/trigger"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Version is the library version, used by adapters that identify
// themselves to peers (MCP, HTTP).
const Version = "0.3.0"

// ValidationReport aggregates the blocking errors and non-blocking
// warnings found in a workflow document.
type ValidationReport = validator.Report

// ValidationIssue is one finding of the validator.
type ValidationIssue = validator.Issue

// Summary is a read-only digest of one live execution.
type Summary = engine.Summary

// Load parses a YAML workflow document.
func Load(data []byte) (*domain.Workflow, error) {
	return loader.Load(data)
}

// LoadFile reads and parses a workflow document from disk.
func LoadFile(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return loader.Load(data)
}

// Validate runs the structural checks against a loaded workflow.
func Validate(wf *domain.Workflow) ValidationReport {
	return validator.Validate(wf)
}

// ParseTimeout parses a duration using the workflow grammar
// ("90s", "30m", "2d", "1h30m", "01:30:00").
func ParseTimeout(s string) (time.Duration, error) {
	return loader.ParseTimeout(s)
}

// Engine is the high-level entry point for the Espalier library.
// It wraps the internal execution engine and registry behind a stable
// surface.
type Engine struct {
	inner    *engine.Engine
	triggers *trigger.Registry
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine, *[]engine.Option)

// WithCheckpointStore enables checkpoint persistence and resume.
func WithCheckpointStore(store ports.CheckpointStore) Option {
	return func(_ *Engine, opts *[]engine.Option) {
		*opts = append(*opts, engine.WithCheckpointStore(store))
	}
}

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(_ *Engine, opts *[]engine.Option) {
		*opts = append(*opts, engine.WithLogger(logger))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(_ *Engine, opts *[]engine.Option) {
		*opts = append(*opts, engine.WithLifecycleHooks(hooks))
	}
}

// WithTriggerPollInterval overrides the delay between trigger polls
// (default 5s).
func WithTriggerPollInterval(d time.Duration) Option {
	return func(_ *Engine, opts *[]engine.Option) {
		*opts = append(*opts, engine.WithTriggerPollInterval(d))
	}
}

// WithTriggerMaxWait bounds how long a trigger may stay unsatisfied
// before the execution fails. Zero (the default) waits forever.
func WithTriggerMaxWait(d time.Duration) Option {
	return func(_ *Engine, opts *[]engine.Option) {
		*opts = append(*opts, engine.WithTriggerMaxWait(d))
	}
}

// WithWorkDir sets the directory relative trigger paths resolve against.
func WithWorkDir(dir string) Option {
	return func(_ *Engine, opts *[]engine.Option) {
		*opts = append(*opts, engine.WithWorkDir(dir))
	}
}

// WithTriggerEvaluator registers a custom trigger evaluator for a
// trigger type, replacing a built-in of the same name if present.
func WithTriggerEvaluator(triggerType string, evaluator ports.TriggerEvaluator) Option {
	return func(e *Engine, _ *[]engine.Option) {
		e.triggers.Register(triggerType, evaluator)
	}
}

// New creates an Engine around an executor collaborator.
func New(executor ports.AgentExecutor, opts ...Option) *Engine {
	e := &Engine{triggers: trigger.NewRegistry()}
	engineOpts := []engine.Option{engine.WithTriggerRegistry(e.triggers)}
	for _, opt := range opts {
		opt(e, &engineOpts)
	}
	e.inner = engine.New(executor, engineOpts...)
	return e
}

// Start validates the workflow and launches a new execution, returning
// its id and the ordered snapshot stream.
func (e *Engine) Start(ctx context.Context, wf *domain.Workflow, input string) (string, <-chan domain.RuntimeState, error) {
	return e.inner.Start(ctx, wf, input)
}

// StartAndWait runs an execution to its terminal snapshot.
func (e *Engine) StartAndWait(ctx context.Context, wf *domain.Workflow, input string) (domain.RuntimeState, error) {
	_, snapshots, err := e.inner.Start(ctx, wf, input)
	if err != nil {
		return domain.RuntimeState{}, err
	}
	var last domain.RuntimeState
	for s := range snapshots {
		last = s
	}
	return last, nil
}

// Resume reconstructs an execution from its latest checkpoint and
// continues it.
func (e *Engine) Resume(ctx context.Context, executionID string) (<-chan domain.RuntimeState, error) {
	return e.inner.Resume(ctx, executionID)
}

// Approve delivers an approval decision to an execution paused at a
// human gate.
func (e *Engine) Approve(executionID string, decision domain.Decision) error {
	return e.inner.Registry().Approve(executionID, decision)
}

// Cancel signals cooperative cancellation to a live execution.
func (e *Engine) Cancel(executionID string) error {
	return e.inner.Registry().Cancel(executionID)
}

// GetState returns the latest snapshot of a live execution.
func (e *Engine) GetState(executionID string) (domain.RuntimeState, error) {
	return e.inner.Registry().GetState(executionID)
}

// ListActive returns a summary per live execution.
func (e *Engine) ListActive() []Summary {
	return e.inner.Registry().ListActive()
}

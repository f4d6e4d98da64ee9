// Package trigger provides the registry of trigger evaluators that gate
// entry into workflow states.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// ErrNotSupported is returned for trigger types with no registered
// evaluator. Expression triggers are declared in the document grammar but
// intentionally unimplemented, so they fail loudly instead of passing
// silently.
var ErrNotSupported = errors.New("trigger type not supported")

// ErrEmptyPath is returned by path-based evaluators when the trigger
// declares no path.
var ErrEmptyPath = errors.New("trigger path must not be empty")

// Registry maps trigger types to their evaluators.
type Registry struct {
	evaluators map[string]ports.TriggerEvaluator
}

// NewRegistry creates a registry pre-populated with the built-in
// evaluators (file_exists, directory_not_empty, immediate).
func NewRegistry() *Registry {
	return &Registry{
		evaluators: map[string]ports.TriggerEvaluator{
			domain.TriggerFileExists:        ports.TriggerEvaluatorFunc(evaluateFileExists),
			domain.TriggerDirectoryNotEmpty: ports.TriggerEvaluatorFunc(evaluateDirectoryNotEmpty),
			domain.TriggerImmediate:         ports.TriggerEvaluatorFunc(evaluateImmediate),
		},
	}
}

// Register adds or replaces an evaluator for a trigger type.
func (r *Registry) Register(triggerType string, evaluator ports.TriggerEvaluator) {
	r.evaluators[triggerType] = evaluator
}

// Get returns the evaluator for a trigger type, or ErrNotSupported.
func (r *Registry) Get(triggerType string) (ports.TriggerEvaluator, error) {
	ev, ok := r.evaluators[triggerType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotSupported, triggerType)
	}
	return ev, nil
}

// Evaluate resolves the evaluator for the trigger and runs it.
func (r *Registry) Evaluate(ctx context.Context, trig domain.Trigger, workDir string) (bool, error) {
	ev, err := r.Get(trig.Type)
	if err != nil {
		return false, err
	}
	return ev.Evaluate(ctx, trig, workDir)
}

// resolvePath makes a relative trigger path absolute against the
// execution's working directory.
func resolvePath(path, workDir string) string {
	if filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}

func evaluateFileExists(_ context.Context, trig domain.Trigger, workDir string) (bool, error) {
	if trig.Path == "" {
		return false, ErrEmptyPath
	}
	_, err := os.Stat(resolvePath(trig.Path, workDir))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", trig.Path, err)
	}
	return true, nil
}

func evaluateDirectoryNotEmpty(_ context.Context, trig domain.Trigger, workDir string) (bool, error) {
	if trig.Path == "" {
		return false, ErrEmptyPath
	}
	entries, err := os.ReadDir(resolvePath(trig.Path, workDir))
	if err != nil {
		// An absent directory is an unsatisfied trigger, not an error:
		// it may appear later.
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read directory %s: %w", trig.Path, err)
	}
	return len(entries) > 0, nil
}

func evaluateImmediate(_ context.Context, _ domain.Trigger, _ string) (bool, error) {
	return true, nil
}

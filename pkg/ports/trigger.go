package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// TriggerEvaluator decides whether a trigger condition is currently
// satisfied. Evaluators must be side-effect free: the engine re-evaluates
// them on every poll until they pass.
type TriggerEvaluator interface {
	Evaluate(ctx context.Context, trigger domain.Trigger, workDir string) (bool, error)
}

// TriggerEvaluatorFunc adapts a function to the TriggerEvaluator interface.
type TriggerEvaluatorFunc func(ctx context.Context, trigger domain.Trigger, workDir string) (bool, error)

// Evaluate implements TriggerEvaluator.
func (f TriggerEvaluatorFunc) Evaluate(ctx context.Context, trigger domain.Trigger, workDir string) (bool, error) {
	return f(ctx, trigger, workDir)
}

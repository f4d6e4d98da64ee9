package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// AgentExecutor runs one named step of a workflow. Its internals (LLM
// calls, tool invocation, shell commands) are the host's concern; the
// engine only sees the returned data.
//
// An error return is fatal for the execution, as is Success=false paired
// with a non-empty ErrorMessage. A plain Success=false with no message is
// data like any other: transition conditions decide what happens next.
type AgentExecutor interface {
	Execute(ctx context.Context, name string, input string, contextData map[string]any) (domain.ExecutorResult, error)
}

// AgentExecutorFunc adapts a function to the AgentExecutor interface.
type AgentExecutorFunc func(ctx context.Context, name string, input string, contextData map[string]any) (domain.ExecutorResult, error)

// Execute implements AgentExecutor.
func (f AgentExecutorFunc) Execute(ctx context.Context, name string, input string, contextData map[string]any) (domain.ExecutorResult, error) {
	return f(ctx, name, input, contextData)
}

// Package process provides an AgentExecutor that runs local commands.
// It follows a strict registry pattern: only explicitly registered
// commands can be invoked, so a workflow document cannot execute
// arbitrary binaries.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// RegisteredCommand defines an allowed executor command.
type RegisteredCommand struct {
	Command string
	Args    []string
}

// Executor implements ports.AgentExecutor by spawning registered local
// processes.
type Executor struct {
	registry map[string]RegisteredCommand
	workDir  string
}

// Option configures the Executor.
type Option func(*Executor)

// WithWorkDir sets the working directory for spawned commands.
func WithWorkDir(dir string) Option {
	return func(e *Executor) { e.workDir = dir }
}

// NewExecutor creates an empty process executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{registry: make(map[string]RegisteredCommand)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a trusted command to the allow-list under an executor
// name.
func (e *Executor) Register(name string, command string, args ...string) {
	e.registry[name] = RegisteredCommand{Command: command, Args: args}
}

// RegisterWorkflowAgents registers every agent declared by the workflow,
// using the alias (or ref) as the executor name and the ref as the
// command line.
func (e *Executor) RegisterWorkflowAgents(wf *domain.Workflow) {
	for _, a := range wf.Agents {
		name := a.Alias
		if name == "" {
			name = a.Ref
		}
		parts := strings.Fields(a.Ref)
		if name == "" || len(parts) == 0 {
			continue
		}
		e.Register(name, parts[0], parts[1:]...)
	}
}

// Execute runs the registered command for the executor name. The input
// and context data travel as environment variables, never as command
// flags, which closes the door on flag injection from workflow data.
//
// If stdout is a JSON object it becomes the result data; otherwise the
// raw text is stored under "<name>_output".
func (e *Executor) Execute(ctx context.Context, name string, input string, contextData map[string]any) (domain.ExecutorResult, error) {
	proc, ok := e.registry[name]
	if !ok {
		return domain.ExecutorResult{}, fmt.Errorf("executor not registered: %s", name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = e.workDir

	env := []string{"ESPALIER_INPUT=" + input}
	for k, v := range contextData {
		env = append(env, fmt.Sprintf("ESPALIER_CTX_%s=%v", strings.ToUpper(k), v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.ExecutorResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("execution failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String())),
		}, nil
	}

	output := strings.TrimSpace(stdout.String())

	var data map[string]any
	if err := json.Unmarshal([]byte(output), &data); err != nil || data == nil {
		data = map[string]any{name + "_output": output}
	}
	return domain.ExecutorResult{Success: true, Data: data}, nil
}

package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter     EventType = "state_enter"
	EventStateLeave     EventType = "state_leave"
	EventExecutorCall   EventType = "executor_call"
	EventExecutorReturn EventType = "executor_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
}

// StateEvent represents entry into or exit from a workflow state.
type StateEvent struct {
	EventBase
	StateID   string `json:"state_id"`
	StateType string `json:"state_type"`
	Status    Status `json:"status"`
}

// ExecutorEvent represents one executor invocation.
type ExecutorEvent struct {
	EventBase
	StateID  string        `json:"state_id"`
	Executor string        `json:"executor"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// All hooks are optional and invoked synchronously on the execution loop.
type LifecycleHooks struct {
	OnStateEnter     func(context.Context, *StateEvent)
	OnStateLeave     func(context.Context, *StateEvent)
	OnExecutorCall   func(context.Context, *ExecutorEvent)
	OnExecutorReturn func(context.Context, *ExecutorEvent)
}

package domain

import "errors"

// ErrExecutionNotFound is returned when an execution id cannot be found in
// the registry or a store.
var ErrExecutionNotFound = errors.New("execution not found")

// ErrNotWaitingForApproval is returned when an approval decision targets an
// execution that is not paused at a human gate.
var ErrNotWaitingForApproval = errors.New("execution is not waiting for approval")

// ErrCheckpointNotFound is returned when no resumable checkpoint exists for
// an execution id.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrExecutionActive is returned when a resume is attempted for an
// execution that is still live in this process.
var ErrExecutionActive = errors.New("execution is still active")

package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// CheckpointStore defines the interface for persisting execution
// checkpoints. This enables durable execution: a crashed or stopped
// process can resume an execution from its last checkpoint.
//
// The core assumes a single writer per execution id. Concurrent
// save-and-resume of the same id from two processes is not arbitrated
// here; deployments needing that must layer a lease on top.
type CheckpointStore interface {
	// Save persists the checkpoint for its execution id, replacing any
	// previous checkpoint for that id.
	Save(ctx context.Context, checkpoint domain.Checkpoint) error

	// Load retrieves the latest checkpoint for an execution id.
	// Returns domain.ErrCheckpointNotFound if none exists.
	Load(ctx context.Context, executionID string) (domain.Checkpoint, error)

	// Exists reports whether a checkpoint exists for the execution id.
	Exists(ctx context.Context, executionID string) (bool, error)

	// Delete removes the checkpoint for the execution id. Deleting a
	// missing checkpoint is not an error.
	Delete(ctx context.Context, executionID string) error

	// List returns the execution ids that have checkpoints.
	List(ctx context.Context) ([]string, error)
}

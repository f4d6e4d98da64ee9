// Package memory provides an in-memory checkpoint store, used in tests
// and by embedders that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.Checkpoint
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]domain.Checkpoint)}
}

// Save persists the checkpoint in memory.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	// Copy the output map so callers can't mutate stored data by alias.
	copied := cp
	copied.OutputData = make(map[string]any, len(cp.OutputData))
	for k, v := range cp.OutputData {
		copied.OutputData[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cp.ExecutionID] = copied
	return nil
}

// Load retrieves the checkpoint for an execution id.
func (s *Store) Load(ctx context.Context, executionID string) (domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[executionID]
	if !ok {
		return domain.Checkpoint{}, domain.ErrCheckpointNotFound
	}

	ret := cp
	ret.OutputData = make(map[string]any, len(cp.OutputData))
	for k, v := range cp.OutputData {
		ret.OutputData[k] = v
	}
	return ret, nil
}

// Exists reports whether a checkpoint is stored for the id.
func (s *Store) Exists(ctx context.Context, executionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[executionID]
	return ok, nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, executionID)
	return nil
}

// List returns the execution ids with stored checkpoints.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// Package file provides a filesystem-backed checkpoint store. Checkpoints
// are JSON files in a configured directory, written atomically.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.CheckpointStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to domain.DefaultCheckpointDirectory.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = domain.DefaultCheckpointDirectory
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(executionID string) string {
	return filepath.Join(s.BasePath, executionID+".json")
}

// Save persists the checkpoint to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames
// it over the destination. A crash mid-save can therefore never leave a
// truncated checkpoint behind.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	if cp.ExecutionID == "" {
		return fmt.Errorf("execution id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+cp.ExecutionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(cp.ExecutionID)
	// On Windows os.Rename fails over an existing file; remove first.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing checkpoint for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint from its JSON file.
func (s *Store) Load(ctx context.Context, executionID string) (domain.Checkpoint, error) {
	if executionID == "" {
		return domain.Checkpoint{}, fmt.Errorf("execution id cannot be empty")
	}

	data, err := os.ReadFile(s.path(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Checkpoint{}, domain.ErrCheckpointNotFound
		}
		return domain.Checkpoint{}, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return domain.Checkpoint{}, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return cp, nil
}

// Exists reports whether a checkpoint file exists for the id.
func (s *Store) Exists(ctx context.Context, executionID string) (bool, error) {
	_, err := os.Stat(s.path(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat checkpoint file: %w", err)
	}
	return true, nil
}

// Delete removes the checkpoint file.
func (s *Store) Delete(ctx context.Context, executionID string) error {
	err := os.Remove(s.path(executionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns the execution ids with checkpoint files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

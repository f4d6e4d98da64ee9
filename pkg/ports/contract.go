package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a
// CheckpointStore implementation adheres to the defined interface
// contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	executionID := "contract-test-exec-" + time.Now().Format("20060102150405")

	wf := domain.Workflow{
		Name:    "contract",
		Version: "1.0",
		States: []domain.State{
			{ID: "start", Type: domain.StateTypeStart, Next: "done"},
			{ID: "done", Type: domain.StateTypeTerminal},
		},
	}

	newCheckpoint := func(id string) domain.Checkpoint {
		state := domain.NewRuntimeState(id, wf.Name, "start", "hello")
		state = state.MergeOutput(map[string]any{"foo": "bar", "count": 42})
		return domain.NewCheckpoint(wf, state, "/tmp/work")
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, newCheckpoint(executionID))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, executionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, executionID, loaded.ExecutionID)
		assert.Equal(t, "start", loaded.CurrentStateID)
		assert.Equal(t, "contract", loaded.Workflow.Name)
		assert.Len(t, loaded.Workflow.States, 2)
		assert.Equal(t, "bar", loaded.OutputData["foo"])
		// JSON persistence may widen ints to float64; only require presence.
		assert.NotNil(t, loaded.OutputData["count"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		cp := newCheckpoint(executionID)
		cp.CurrentStateID = "done"
		cp.IterationCount = 3
		require.NoError(t, store.Save(ctx, cp))

		loaded, err := store.Load(ctx, executionID)
		require.NoError(t, err)
		assert.Equal(t, "done", loaded.CurrentStateID)
		assert.Equal(t, 3, loaded.IterationCount)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+executionID)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := store.Exists(ctx, executionID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists(ctx, "non-existent-"+executionID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newCheckpoint(executionID)))

		err := store.Delete(ctx, executionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, executionID)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound, "Load after Delete should return ErrCheckpointNotFound")

		// Deleting again must be a no-op, not an error.
		assert.NoError(t, store.Delete(ctx, executionID))
	})

	t.Run("List", func(t *testing.T) {
		id1 := executionID + "-1"
		id2 := executionID + "-2"
		require.NoError(t, store.Save(ctx, newCheckpoint(id1)))
		require.NoError(t, store.Save(ctx, newCheckpoint(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

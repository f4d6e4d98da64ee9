package middleware_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
)

func testCheckpoint(id string, output map[string]any) domain.Checkpoint {
	wf := domain.Workflow{Name: "secret-wf", States: []domain.State{
		{ID: "work", Type: domain.StateTypeAgent, Executor: "x", Next: "done"},
		{ID: "done", Type: domain.StateTypeTerminal},
	}}
	state := domain.NewRuntimeState(id, wf.Name, "work", "input").MergeOutput(output)
	return domain.NewCheckpoint(wf, state, "/work")
}

func key(b byte) []byte { return bytes.Repeat([]byte{b}, 32) }

func TestEncryptionMiddleware_RoundTrip(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key('a'),
	})(inner)
	ctx := context.Background()

	cp := testCheckpoint("exec-1", map[string]any{"token": "hunter2"})
	require.NoError(t, store.Save(ctx, cp))

	// The inner store only ever sees the opaque envelope.
	raw, err := inner.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Empty(t, raw.Workflow.States)
	assert.Empty(t, raw.CurrentStateID)
	assert.NotContains(t, raw.OutputData, "token")
	assert.Contains(t, raw.OutputData, "__encrypted__")

	loaded, err := store.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "work", loaded.CurrentStateID)
	assert.Equal(t, "secret-wf", loaded.Workflow.Name)
	assert.Equal(t, "hunter2", loaded.OutputData["token"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key('o'),
	})(inner)
	require.NoError(t, oldStore.Save(ctx, testCheckpoint("exec-1", nil)))

	// New active key, old key demoted to fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    key('n'),
		FallbackKeys: [][]byte{key('o')},
	})(inner)

	loaded, err := rotated.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "exec-1", loaded.ExecutionID)

	// Without the fallback the old record is unreadable.
	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key('n'),
	})(inner)
	_, err = strict.Load(ctx, "exec-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, inner.Save(ctx, testCheckpoint("plain", nil)))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key('a'),
	})(inner)

	_, err := store.Load(ctx, "plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envelope")
}

func TestEncryptionMiddleware_BadKeyLength(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestPIIMiddleware_MasksMatchingKeys(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.NewPIIMiddleware([]string{"(?i)email", "^ssn$"})(inner)
	ctx := context.Background()

	cp := testCheckpoint("exec-1", map[string]any{
		"user_email": "dev@example.com",
		"ssn":        "000-00-0000",
		"nested":     map[string]any{"contact_email": "ops@example.com"},
		"safe":       "keep me",
	})
	require.NoError(t, store.Save(ctx, cp))

	persisted, err := inner.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "***", persisted.OutputData["user_email"])
	assert.Equal(t, "***", persisted.OutputData["ssn"])
	assert.Equal(t, "***", persisted.OutputData["nested"].(map[string]any)["contact_email"])
	assert.Equal(t, "keep me", persisted.OutputData["safe"])

	// The caller's checkpoint is untouched.
	assert.Equal(t, "dev@example.com", cp.OutputData["user_email"])
}

func TestChain_AppliesOutermostFirst(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{"secret"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key('c')}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testCheckpoint("exec-1", map[string]any{"secret_sauce": "ketchup"})))

	loaded, err := store.Load(ctx, "exec-1")
	require.NoError(t, err)
	// PII masking ran before encryption, so the decrypted record is masked.
	assert.Equal(t, "***", loaded.OutputData["secret_sauce"])
}

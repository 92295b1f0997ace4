package tracing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRunIDFromContext_Empty(t *testing.T) {
	require.Equal(t, "", RunIDFromContext(context.Background()))
	//nolint:staticcheck // testing nil context handling
	require.Equal(t, "", RunIDFromContext(nil))
}

func TestContextWithRunID_Roundtrip(t *testing.T) {
	id := NewRunID()
	ctx := ContextWithRunID(context.Background(), id)
	require.Equal(t, id, RunIDFromContext(ctx))
}

func TestContextWithRunID_EmptyKeepsExisting(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "first")
	ctx = ContextWithRunID(ctx, "")
	require.Equal(t, "first", RunIDFromContext(ctx))
}

func TestNewRunID_IsUUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		require.False(t, seen[id], "run IDs should be unique")
		seen[id] = true
	}
}

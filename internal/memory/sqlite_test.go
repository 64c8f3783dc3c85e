package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSaveAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessage(ctx, "alice", "i love jazz music"))
	require.NoError(t, store.SaveMessage(ctx, "alice", "recommend me something"))
	require.NoError(t, store.SaveMessage(ctx, "bob", "jazz is overrated"))

	entries, err := store.Search(ctx, "alice", "jazz", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Sender)
	assert.Equal(t, "i love jazz music", entries[0].Text)
}

func TestSearchScopedToSender(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessage(ctx, "bob", "hello world"))

	entries, err := store.Search(ctx, "alice", "hello", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearchMatchesAnyToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessage(ctx, "alice", "the weather is nice"))
	require.NoError(t, store.SaveMessage(ctx, "alice", "i like rock"))

	entries, err := store.Search(ctx, "alice", "rock weather", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSearchLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveMessage(ctx, "alice", "same topic again"))
	}

	entries, err := store.Search(ctx, "alice", "topic", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

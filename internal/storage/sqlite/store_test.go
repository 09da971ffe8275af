package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fakhrymubarak/weather-dashboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "weatherWidgets")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "weatherWidgets", `[{"id":"widget-1"}]`))
	got, err := store.Get(ctx, "weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"widget-1"}]`, got)

	// Overwrite replaces the value.
	require.NoError(t, store.Set(ctx, "weatherWidgets", `[]`))
	got, err = store.Get(ctx, "weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.db")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "weatherWidgets", `[{"id":"a"}]`))
	require.NoError(t, store.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, got)
}

var _ storage.Store = (*Store)(nil)

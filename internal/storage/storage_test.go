package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "weatherWidgets")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Set(ctx, "weatherWidgets", `[]`))
	v, err := s.Get(ctx, "weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Set(ctx, "weatherWidgets", `[{"id":"a"}]`))
	v, err = s.Get(ctx, "weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, s.Delete(ctx, "weatherWidgets"))
	_, err = s.Get(ctx, "weatherWidgets")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Close())
}

var _ Store = (*MemoryStore)(nil)

package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-dashboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	s := NewStore(NewClient(mr.Addr()))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestGetClient(t *testing.T) {
	client := GetClient()
	if client == nil {
		t.Error("Expected Redis client to be created")
	}

	// Test that we can get the same client multiple times (singleton pattern)
	client2 := GetClient()
	if client != client2 {
		t.Error("Expected same client instance (singleton pattern)")
	}
}

func TestResetClientForTest(t *testing.T) {
	client1 := GetClient()
	ResetClientForTest()
	client2 := GetClient()
	if client1 == client2 {
		t.Error("Expected a new client instance after reset")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "weatherWidgets")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_SetGetDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Set(ctx, "weatherWidgets", `[{"id":"widget-1"}]`))

	raw, err := mr.Get("dashboard:weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"widget-1"}]`, raw)
	assert.Zero(t, mr.TTL("dashboard:weatherWidgets"))

	got, err := s.Get(ctx, "weatherWidgets")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"widget-1"}]`, got)

	require.NoError(t, s.Delete(ctx, "weatherWidgets"))
	_, err = s.Get(ctx, "weatherWidgets")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "weatherWidgets")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

var _ storage.Store = (*Store)(nil)

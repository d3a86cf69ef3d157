package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStateStore(t *testing.T) {
	now := time.Now().UTC()
	store := NewGormStateStore(setupTestDB(t))
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "browser", "state-1", time.Minute))
	// a second login from the same browser replaces the pending state
	require.NoError(t, store.Save(ctx, "browser", "state-2", time.Minute))

	state, err := store.Take(ctx, "browser")
	require.NoError(t, err)
	assert.Equal(t, "state-2", state)

	state, err = store.Take(ctx, "browser")
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, store.Save(ctx, "stale", "state-3", time.Minute))
	now = now.Add(2 * time.Minute)
	state, err = store.Take(ctx, "stale")
	require.NoError(t, err)
	assert.Empty(t, state, "expired state is not returned")

	require.NoError(t, store.Save(ctx, "abandoned", "state-4", time.Minute))
	now = now.Add(2 * time.Minute)
	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestRedisStateStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStateStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "browser", "state-1", time.Minute))

	state, err := store.Take(ctx, "browser")
	require.NoError(t, err)
	assert.Equal(t, "state-1", state)

	state, err = store.Take(ctx, "browser")
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, store.Save(ctx, "stale", "state-2", time.Minute))
	mr.FastForward(2 * time.Minute)
	state, err = store.Take(ctx, "stale")
	require.NoError(t, err)
	assert.Empty(t, state)
}

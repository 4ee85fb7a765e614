package libs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Hour), mr
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, mr := setupSessionStore(t)
	ctx := context.Background()

	var missing map[string]int
	found, err := store.Get(ctx, "sid-1", "cart", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "sid-1", "cart", map[string]int{"3": 2}))
	assert.Equal(t, time.Hour, mr.TTL("session:sid-1"))

	var got map[string]int
	found, err = store.Get(ctx, "sid-1", "cart", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]int{"3": 2}, got)

	require.NoError(t, store.Delete(ctx, "sid-1", "cart"))
	found, err = store.Get(ctx, "sid-1", "cart", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionStoreSlidingExpiry(t *testing.T) {
	store, mr := setupSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sid-2", "cart", 1))
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Set(ctx, "sid-2", "cart", 2))
	assert.Equal(t, time.Hour, mr.TTL("session:sid-2"))

	mr.FastForward(2 * time.Hour)
	var v int
	found, err := store.Get(ctx, "sid-2", "cart", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionStoreCorruptValue(t *testing.T) {
	store, mr := setupSessionStore(t)
	mr.HSet("session:sid-3", "cart", "{not json")

	var v map[string]int
	_, err := store.Get(context.Background(), "sid-3", "cart", &v)
	assert.Error(t, err)
}

func TestSessionStorePing(t *testing.T) {
	store, mr := setupSessionStore(t)
	assert.NoError(t, store.Ping(context.Background()))
	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

package credential

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a store connected to a miniredis instance
func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "test-profile")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNewRedisStore_RejectsEmptyProfile(t *testing.T) {
	_, err := NewRedisStore(&redis.Options{Addr: "localhost:6379"}, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "profile cannot be empty")
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "shared-token"))
	stored, err := mr.Get("nesa:test-profile:credential")
	require.NoError(t, err)
	assert.Equal(t, "shared-token", stored)

	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared-token", token)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("nesa:test-profile:credential"))
}

func TestRedisStore_ProfilesAreIsolated(t *testing.T) {
	store, mr := setupRedisStore(t)
	other, err := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "other")
	require.NoError(t, err)
	defer other.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "mine"))

	token, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRedisStore_LoadError(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read credential from Redis")
}

func TestRedisStore_SubscribeChanges(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	changes, err := store.SubscribeChanges(ctx)
	require.NoError(t, err)
	defer changes.Close()

	require.NoError(t, store.Save(ctx, "t1"))

	select {
	case _, ok := <-changes.Events():
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("expected change announcement")
	}

	require.NoError(t, changes.Close())
	require.NoError(t, changes.Close())

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-changes.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

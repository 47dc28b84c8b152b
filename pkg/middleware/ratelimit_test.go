package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMax    = 5
	testWindow = time.Minute
	testBlock  = 15 * time.Minute
)

func TestMemoryStoreAllowsBurstThenBlocks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < testMax; i++ {
		res, err := store.Hit(ctx, "login:1.2.3.4", testMax, testWindow, testBlock)
		require.NoError(t, err)
		assert.True(t, res.OK, "attempt %d should be allowed", i+1)
		assert.Equal(t, testMax-i-1, res.Remaining)
	}

	res, err := store.Hit(ctx, "login:1.2.3.4", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.True(t, res.Blocked)
}

func TestMemoryStoreEscalatesOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < testMax; i++ {
		_, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
		require.NoError(t, err)
	}

	first, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.True(t, first.Blocked)
	// Lockout lands well beyond the base window.
	assert.Greater(t, time.Until(first.ResetAt), testWindow)

	// Hammering during the lockout must not push the reset further out.
	second, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.True(t, second.Blocked)
	assert.WithinDuration(t, first.ResetAt, second.ResetAt, time.Second)
}

func TestMemoryStoreResetClearsCounter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < testMax+1; i++ {
		_, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
		require.NoError(t, err)
	}
	require.NoError(t, store.Reset(ctx, "login:k"))

	res, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, testMax-1, res.Remaining)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < testMax+1; i++ {
		_, err := store.Hit(ctx, "login:a", testMax, testWindow, testBlock)
		require.NoError(t, err)
	}

	res, err := store.Hit(ctx, "login:b", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test")
}

func TestRedisStoreAllowsBurstThenBlocks(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)

	for i := 0; i < testMax; i++ {
		res, err := store.Hit(ctx, "login:1.2.3.4", testMax, testWindow, testBlock)
		require.NoError(t, err)
		assert.True(t, res.OK, "attempt %d should be allowed", i+1)
	}

	res, err := store.Hit(ctx, "login:1.2.3.4", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.True(t, res.Blocked)
	assert.Greater(t, time.Until(res.ResetAt), testWindow)
}

func TestRedisStoreReset(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)

	for i := 0; i < testMax+1; i++ {
		_, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
		require.NoError(t, err)
	}
	require.NoError(t, store.Reset(ctx, "login:k"))

	res, err := store.Hit(ctx, "login:k", testMax, testWindow, testBlock)
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestLoginLimiterFailsOpen(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewLoginLimiter(NewRedisStore(client, "test"), testMax, testWindow, testBlock, nil)

	mr.Close()
	res := limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, res.OK, "an unreachable store must not lock logins out")
}

func TestLoginLimiterEndToEnd(t *testing.T) {
	ctx := context.Background()
	limiter := NewLoginLimiter(NewMemoryStore(), testMax, testWindow, testBlock, nil)

	for i := 0; i < testMax; i++ {
		assert.True(t, limiter.Allow(ctx, "10.0.0.1").OK)
	}
	assert.False(t, limiter.Allow(ctx, "10.0.0.1").OK)

	limiter.Reset(ctx, "10.0.0.1")
	assert.True(t, limiter.Allow(ctx, "10.0.0.1").OK)
}

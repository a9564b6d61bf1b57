package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupResultCache(t *testing.T) (*ResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewResultCache(rdb, "inventory:search", time.Minute), mr
}

func TestResultCacheRoundTrip(t *testing.T) {
	c, mr := setupResultCache(t)
	ctx := context.Background()

	var ids []string
	hit, err := c.Get(ctx, "glass", &ids)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "glass", []string{"b", "a"}))
	hit, err = c.Get(ctx, "glass", &ids)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"b", "a"}, ids)

	mr.FastForward(time.Minute + time.Second)
	hit, err = c.Get(ctx, "glass", &ids)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultCacheInvalidateKeepsOtherPrefixes(t *testing.T) {
	c, mr := setupResultCache(t)
	ctx := context.Background()

	for _, q := range []string{"glass", "battery", "screen"} {
		require.NoError(t, c.Set(ctx, q, []string{q}))
	}
	require.NoError(t, mr.Set("auth:revoked:x", "1"))
	require.NoError(t, mr.Set("inventory:other", "1"))

	require.NoError(t, c.Invalidate(ctx))

	var ids []string
	for _, q := range []string{"glass", "battery", "screen"} {
		hit, err := c.Get(ctx, q, &ids)
		require.NoError(t, err)
		assert.False(t, hit, q)
	}
	assert.True(t, mr.Exists("auth:revoked:x"))
	assert.True(t, mr.Exists("inventory:other"))

	// Nothing left to drop.
	require.NoError(t, c.Invalidate(ctx))
}

func TestResultCacheCorruptEntry(t *testing.T) {
	c, mr := setupResultCache(t)
	require.NoError(t, mr.Set(c.key("glass"), "not json"))

	var ids []string
	hit, err := c.Get(context.Background(), "glass", &ids)
	assert.Error(t, err)
	assert.False(t, hit)
}

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

func setupRedisRevoker(t *testing.T) (*RedisRevoker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisRevoker(rdb), mr
}

func TestRedisRevokerExpiresWithToken(t *testing.T) {
	r, mr := setupRedisRevoker(t)
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("auth:revoked:jti-1"))

	mr.FastForward(time.Hour + time.Second)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevokerSkipsExpiredTokens(t *testing.T) {
	r, mr := setupRedisRevoker(t)

	require.NoError(t, r.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("auth:revoked:old"))
}

func TestRedisRevokerReportsBackendErrors(t *testing.T) {
	r, mr := setupRedisRevoker(t)
	mr.Close()

	_, err := r.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

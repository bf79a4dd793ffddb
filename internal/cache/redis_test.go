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

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return &RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}, mr
}

func TestLikeCount(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	_, ver, ok, err := rc.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache is a miss")

	stored, err := rc.SetLikeCount(ctx, "u1", 7, ver)
	require.NoError(t, err)
	assert.True(t, stored)
	n, _, ok, err := rc.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, LikeCountTTL, mr.TTL("likes:count:u1"))

	require.NoError(t, rc.InvalidateLikeCounts(ctx, "u1", "u2"))
	_, _, ok, err = rc.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikeCountTTLDoesNotSlide(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	_, err := rc.SetLikeCount(ctx, "u1", 3, 0)
	require.NoError(t, err)

	for range 3 {
		mr.FastForward(25 * time.Minute)
		_, _, _, err := rc.GetLikeCount(ctx, "u1")
		require.NoError(t, err)
	}
	assert.False(t, mr.Exists("likes:count:u1"), "reads must not keep a count alive past its TTL")

	_, _, ok, err := rc.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikeCountComputedBeforeInvalidationIsDropped(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	_, ver, ok, err := rc.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	// a swipe lands while the count is being recomputed
	require.NoError(t, rc.InvalidateLikeCounts(ctx, "u1"))

	stored, err := rc.SetLikeCount(ctx, "u1", 4, ver)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("likes:count:u1"))

	_, ver, _, err = rc.GetLikeCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
	stored, err = rc.SetLikeCount(ctx, "u1", 5, ver)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestLikeCountGarbageIsMiss(t *testing.T) {
	rc, mr := setupRedis(t)
	require.NoError(t, mr.Set("likes:count:u1", "not-a-number"))

	_, _, ok, err := rc.GetLikeCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionLifecycle(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.PutSession(ctx, "s1", "alice", time.Minute))
	user, err := rc.SessionUser(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	mr.FastForward(2 * time.Minute)
	user, err = rc.SessionUser(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, user, "expired session is gone")

	require.NoError(t, rc.PutSession(ctx, "s2", "bob", time.Minute))
	require.NoError(t, rc.DeleteSession(ctx, "s2"))
	require.NoError(t, rc.DeleteSession(ctx, "s2"), "deleting twice is fine")
	user, err = rc.SessionUser(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, user)
}

func TestOTPIsSingleUse(t *testing.T) {
	rc, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.PutOTP(ctx, "+15551234567", "123456", time.Minute))

	code, err := rc.TakeOTP(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	code, err = rc.TakeOTP(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Empty(t, code)
}

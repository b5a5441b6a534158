package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisLimiter(client, log), mr
}

func TestRedisLimiter_AllowsWithinBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "user:42:wage", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRedisLimiter_BlocksOverBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Check(ctx, "user:42:import", 3, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Check(ctx, "user:42:import", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Check(ctx, "user:42:wage", 3, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Check(ctx, "user:43:wage", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "user:42:export", 2, time.Second)
		require.NoError(t, err)
	}

	result, err := limiter.Check(ctx, "user:42:export", 2, time.Second)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	// miniredis does not advance wall-clock time; drop the recorded hits to
	// emulate the window expiring.
	mr.Del("ratelimit:user:42:export")

	result, err = limiter.Check(ctx, "user:42:export", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_ZeroLimitBlocksEverything(t *testing.T) {
	limiter, _ := newTestLimiter(t)

	result, err := limiter.Check(context.Background(), "user:42:wage", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

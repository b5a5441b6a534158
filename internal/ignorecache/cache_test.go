package ignorecache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarysms/salary-bot/pkg/redis"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCache(&redis.Client{Client: rdb})
}

func TestCache_MissReturnsNilSet(t *testing.T) {
	cache := newTestCache(t)

	set, err := cache.Get(context.Background(), 42)

	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestCache_SetThenGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 42, []string{"VISA1234", "ECMC5678"}))

	set, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Contains(t, set, "VISA1234")
	assert.Contains(t, set, "ECMC5678")
	assert.NotContains(t, set, "VISA9999")
}

func TestCache_EmptyListIsCachedAsHit(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 42, nil))

	set, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, set, "cached empty list must not read as a miss")
	assert.Empty(t, set)
}

func TestCache_InvalidateDropsEntry(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 42, []string{"VISA1234"}))
	require.NoError(t, cache.Invalidate(ctx, 42))

	set, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestCache_OwnersAreIsolated(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 42, []string{"VISA1234"}))

	set, err := cache.Get(ctx, 43)
	require.NoError(t, err)
	assert.Nil(t, set)
}

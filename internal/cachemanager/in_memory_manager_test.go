package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type cachedPage struct {
	Keys  []string
	Total int
}

func newPageCache() *InMemoryCacheManager[string, cachedPage] {
	return NewInMemoryCacheManager[string, cachedPage]("pages", DefaultExpiration, 0)
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := newPageCache()
	page := cachedPage{Keys: []string{"OPS-1", "OPS-2"}, Total: 12}
	cache.Set(context.Background(), "pending_1_100", page, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "pending_1_100")
	require.True(t, ok)
	require.Equal(t, page, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	cache := newPageCache()

	got, ok := cache.Get(context.Background(), "pending_1_100")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_GetWrongType(t *testing.T) {
	cache := newPageCache()
	cache.cache.Set("pending_1_100", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "pending_1_100")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_NamedKeyType(t *testing.T) {
	type key string
	cache := NewInMemoryCacheManager[key, int]("counts", DefaultExpiration, 0)
	cache.Set(context.Background(), key("a"), 7, NoExpiration)

	got, ok := cache.Get(context.Background(), key("a"))
	require.True(t, ok)
	require.Equal(t, 7, got)
}

func TestInMemoryCacheManager_ExpiredItemIsMissing(t *testing.T) {
	cache := newPageCache()
	cache.Set(context.Background(), "k", cachedPage{Total: 1}, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetMultiple(t *testing.T) {
	cache := newPageCache()
	ctx := context.Background()

	got, ok := cache.GetMultiple(ctx, nil)
	require.False(t, ok)
	require.Nil(t, got)

	got, ok = cache.GetMultiple(ctx, []string{"a", "b"})
	require.False(t, ok)
	require.Nil(t, got)

	cache.Set(ctx, "a", cachedPage{Total: 1}, NoExpiration)
	cache.cache.Set("b", "not a page", NoExpiration)

	got, ok = cache.GetMultiple(ctx, []string{"a", "b", "c"})
	require.True(t, ok)
	require.Equal(t, map[string]cachedPage{"a": {Total: 1}}, got)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newPageCache()
	ctx := context.Background()

	_, ok := cache.GetWithRefresh(ctx, "k", time.Hour)
	require.False(t, ok)

	cache.Set(ctx, "k", cachedPage{Total: 3}, time.Minute)
	got, ok := cache.GetWithRefresh(ctx, "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, 3, got.Total)

	_, expiresAt, found := cache.cache.GetWithExpiration("k")
	require.True(t, found)
	require.True(t, expiresAt.After(time.Now().Add(30*time.Minute)))
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	cache := newPageCache()
	ctx := context.Background()

	require.NoError(t, cache.Delete(ctx))

	cache.Set(ctx, "a", cachedPage{}, NoExpiration)
	cache.Set(ctx, "b", cachedPage{}, NoExpiration)
	require.NoError(t, cache.Delete(ctx, "a", "missing"))

	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "b")
	require.True(t, ok)
}

func TestInMemoryCacheManager_FlushAndItems(t *testing.T) {
	cache := newPageCache()
	ctx := context.Background()

	cache.Set(ctx, "a", cachedPage{Total: 1}, NoExpiration)
	cache.Set(ctx, "b", cachedPage{Total: 2}, NoExpiration)
	cache.cache.Set("c", 42, NoExpiration)

	items := cache.Items(ctx)
	require.Len(t, items, 2)
	require.Equal(t, 2, items["b"].Total)

	require.NoError(t, cache.Flush(ctx))
	require.Empty(t, cache.Items(ctx))
}

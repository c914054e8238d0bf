package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	got, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, c.Set(ctx, "a", []byte("2")))
	got, _, _ = c.Get(ctx, "a")
	assert.Equal(t, []byte("2"), got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("a")))
	require.NoError(t, c.Set(ctx, "b", []byte("b")))
	_, _, _ = c.Get(ctx, "a") // a is now newest
	require.NoError(t, c.Set(ctx, "c", []byte("c")))

	_, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok, "b should be evicted")
	_, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(10, time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	now = now.Add(30 * time.Second)
	_, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestMemoryCache_Stats(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute)
	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	_, _, _ = c.Get(ctx, "a")
	_, _, _ = c.Get(ctx, "b")

	s := c.Stats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, 1000, s.MaxEntries)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	_, ok, err := c.Get(ctx, "company:org:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "company:org:1", []byte(`{"name":"Acme"}`)))
	got, ok, err := c.Get(ctx, "company:org:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"name":"Acme"}`, string(got))

	assert.True(t, mr.Exists(redisKeyPrefix+"company:org:1"))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+"company:org:1"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, "company:org:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich: redis get k")
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = OpenRedis(context.Background(), "not a url", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

package cache

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/notification-hub/config"
)

func newTestCache(t *testing.T) (*RedisPageCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisPageCache(client), mr
}

func TestRedisPageCache_PutGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, 1, "page=1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, c.Put(ctx, 1, gen, "page=1", []byte(`{"total_notifications":3}`), time.Minute))
	val, _, ok, err := c.Get(ctx, 1, "page=1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"total_notifications":3}`, string(val))

	assert.Equal(t, time.Minute, mr.TTL("notifications:user:1:0:page=1"))

	_, _, ok, err = c.Get(ctx, 2, "page=1")
	require.NoError(t, err)
	assert.False(t, ok, "entries are per user")
}

func TestRedisPageCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 1, 0, "a", []byte("x"), 0))
	assert.Equal(t, DefaultTTL, mr.TTL("notifications:user:1:0:a"))

	mr.FastForward(DefaultTTL + time.Second)
	_, _, ok, err := c.Get(ctx, 1, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPageCache_EntriesExpireIndependently(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 1, 0, "p1", []byte("one"), time.Hour))
	mr.FastForward(50 * time.Minute)
	require.NoError(t, c.Put(ctx, 1, 0, "p2", []byte("two"), time.Hour))
	mr.FastForward(50 * time.Minute)

	_, _, ok, err := c.Get(ctx, 1, "p1")
	require.NoError(t, err)
	assert.False(t, ok, "p1 outlived its own TTL")

	val, _, ok, err := c.Get(ctx, 1, "p2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", string(val))
}

func TestRedisPageCache_InvalidateDropsAllPages(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, 1, 0, "a", []byte("x"), time.Minute))
	require.NoError(t, c.Put(ctx, 1, 0, "b", []byte("y"), time.Minute))
	require.NoError(t, c.Put(ctx, 2, 0, "a", []byte("z"), time.Minute))

	require.NoError(t, c.Invalidate(ctx, 1))

	for _, sub := range []string{"a", "b"} {
		_, gen, ok, err := c.Get(ctx, 1, sub)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int64(1), gen)
	}
	_, _, ok, err := c.Get(ctx, 2, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisPageCache_PutUnderOldGenerationIsHidden(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, 1, "a")
	require.NoError(t, err)
	require.False(t, ok)

	// A write lands between the miss and the fill.
	require.NoError(t, c.Invalidate(ctx, 1))
	require.NoError(t, c.Put(ctx, 1, gen, "a", []byte("stale"), time.Minute))

	_, _, ok, err = c.Get(ctx, 1, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	current, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, gen+1, current)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(&config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = NewRedisClient(&config.RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}

func TestSubKey(t *testing.T) {
	a := SubKey(url.Values{"is_read": {"true"}, "page": {"2"}}, 2)
	b := SubKey(url.Values{"page": {"2"}, "is_read": {"true"}}, 2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, SubKey(url.Values{"is_read": {"true"}}, 1), SubKey(url.Values{"is_read": {"false"}}, 1))
	assert.NotEqual(t, SubKey(nil, 1), SubKey(nil, 2))
}

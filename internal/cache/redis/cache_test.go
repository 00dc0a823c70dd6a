package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/theory-forum/internal/repository"
)

// newTestCache connects to the Redis server named by FORUM_TEST_REDIS_ADDR.
func newTestCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("FORUM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FORUM_TEST_REDIS_ADDR not set")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())

	prefix := "forum-test:" + t.Name() + ":"
	c := NewCacheWithClient(client, prefix, zerolog.Nop())
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = c.Close()
	})
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_SetNXAndTTL(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	ok, err := c.SetNX(ctx, "token:x", []byte("1"), 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "token:x", []byte("2"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "token:x")
		return err == repository.ErrCacheMiss
	}, 2*time.Second, 50*time.Millisecond)
}

func TestCache_Unavailable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewCacheWithClient(client, "", zerolog.Nop())
	defer c.Close()

	_, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, repository.ErrCacheUnavailable)
}

package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/theory-forum/internal/repository"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := NewCache(10*time.Millisecond, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	value := []byte("user-1")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("user-1"), got)

	got[0] = 'Y'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("user-1"), again)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	ok, err := c.SetNX(ctx, "token:abc", []byte("1"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "token:abc", []byte("2"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.Get(ctx, "token:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

func TestCache_SetNXConcurrent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.SetNX(ctx, "contended", []byte("v"), 0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	_, err := c.Get(ctx, "short")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	// An expired key may be claimed again.
	ok, err := c.SetNX(ctx, "short", []byte("w"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Set(ctx, "gone", []byte("v"), 5*time.Millisecond))
	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := NewCache(0, zerolog.Nop())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, opts ...RedisOption) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return NewRedisBackendFromClient(client, opts...), mr
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	rb, mr := newTestRedis(t, WithPrefix("test:"))

	_, ok, err := rb.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rb.Set(ctx, "page:home", []byte(`{"a":1}`)))
	require.NoError(t, rb.Set(ctx, "page:about", []byte(`2`)))
	require.NoError(t, rb.Set(ctx, "user:1", []byte(`3`)))
	assert.True(t, mr.Exists("test:page:home"))

	data, ok, err := rb.Get(ctx, "page:home")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	keys, err := rb.Keys(ctx, "page:")
	require.NoError(t, err)
	assert.Equal(t, []string{"page:about", "page:home"}, keys)

	require.NoError(t, rb.Delete(ctx, "page:home"))
	_, ok, err = rb.Get(ctx, "page:home")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendTTL(t *testing.T) {
	ctx := context.Background()
	rb, mr := newTestRedis(t, WithTTL(time.Minute))

	require.NoError(t, rb.Set(ctx, "k", []byte(`1`)))
	assert.Equal(t, time.Minute, mr.TTL(defaultRedisPrefix+"k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := rb.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheOverRedis(t *testing.T) {
	ctx := context.Background()
	rb, _ := newTestRedis(t)
	c := New(rb)

	p := c.GetOrLoad(ctx, "greeting", func(context.Context) (any, error) {
		return "hello", nil
	})
	v, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	fresh := New(rb)
	v, ok, err := fresh.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	snap, err := fresh.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello"}`, string(snap))
}

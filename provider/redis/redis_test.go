package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/varcache/provider/redis"
)

func newProvider(t *testing.T, maxTTL time.Duration) (*redis.Redis, goredis.UniversalClient) {
	t.Helper()
	addr := os.Getenv("VARCACHE_REDIS_ADDR")
	if addr == "" {
		t.Skip("VARCACHE_REDIS_ADDR not set")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	p, err := redis.New(redis.Config{Client: client, CloseClient: true, MaxTTL: maxTTL})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, client
}

func TestRedisRoundTrip(t *testing.T) {
	p, client := newProvider(t, 0)
	ctx := context.Background()
	key := "var:test:" + t.Name()

	ok, err := p.Set(ctx, key, []byte{0x00, 0xff, 'x'}, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	b, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0x00, 0xff, 'x'}, b)
	require.Equal(t, time.Duration(-1), client.TTL(ctx, key).Val())

	require.NoError(t, p.Del(ctx, key))
	_, ok, err = p.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisMaxTTLCapsPermanentKeys(t *testing.T) {
	p, client := newProvider(t, time.Minute)
	ctx := context.Background()
	key := "var:test:" + t.Name()
	defer p.Del(ctx, key)

	_, err := p.Set(ctx, key, []byte("redirect"), 1, 0)
	require.NoError(t, err)
	ttl := client.TTL(ctx, key).Val()
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisNilClient(t *testing.T) {
	_, err := redis.New(redis.Config{})
	require.ErrorIs(t, err, redis.ErrNilClient)
}

package tagstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("VARCACHE_REDIS_ADDR")
	if addr == "" {
		t.Skip("VARCACHE_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return client
}

func TestRedisChecksumFollowsInvalidate(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	s := NewRedisWithTTL(client, "test-"+t.Name(), time.Minute)
	defer s.Close(ctx)
	defer client.Del(ctx, s.key("node:1"), s.key("node:2"))

	tags := []string{"node:1", "node:2"}
	before, err := s.Checksum(ctx, tags)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if err := s.Invalidate(ctx, "node:2"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	after, err := s.Checksum(ctx, tags)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if before == after {
		t.Fatal("checksum must change after invalidation")
	}
	unrelated, err := s.Checksum(ctx, []string{"node:1"})
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := s.Checksum(ctx, []string{"node:1"}); again != unrelated {
		t.Fatal("checksum of untouched tags must be stable")
	}
	if ttl := client.TTL(ctx, s.key("node:2")).Val(); ttl <= 0 {
		t.Fatalf("counter ttl = %v", ttl)
	}
}

func TestRedisExpiredCounterNeverRepeats(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	s := NewRedisWithTTL(client, "test-"+t.Name(), time.Minute)
	defer s.Close(ctx)
	defer client.Del(ctx, s.key("node:1"), s.seqKey())

	if s.CounterTTL() != time.Minute {
		t.Fatalf("CounterTTL = %v", s.CounterTTL())
	}
	tags := []string{"node:1"}
	if err := s.Invalidate(ctx, "node:1"); err != nil {
		t.Fatal(err)
	}
	first, err := s.Checksum(ctx, tags)
	if err != nil {
		t.Fatal(err)
	}

	// stand-in for expiry
	client.Del(ctx, s.key("node:1"))
	if err := s.Invalidate(ctx, "node:1"); err != nil {
		t.Fatal(err)
	}
	second, err := s.Checksum(ctx, tags)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("recreated counter repeated an earlier value")
	}
}

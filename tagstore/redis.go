package tagstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares tag counters across processes and survives restarts.
// Optionally a TTL is applied to counter keys to bound growth. Expiring
// counters take their values from a namespace-wide sequence that never
// expires, so a counter recreated after expiry never repeats an old value.
// The remaining case, an entry written before the first bump, is closed by
// the cache capping tagged entries at CounterTTL.
type Redis struct {
	rdb redis.UniversalClient
	ns  string
	ttl time.Duration
}

var (
	_ TagStore = (*Redis)(nil)
	_ Expiring = (*Redis)(nil)
)

// NewRedis creates a Redis-backed tag store without TTL.
func NewRedis(client redis.UniversalClient, namespace string) *Redis {
	return &Redis{rdb: client, ns: namespace}
}

// NewRedisWithTTL creates a Redis-backed tag store with TTL on counter keys.
// If ttl <= 0, keys do not expire.
func NewRedisWithTTL(client redis.UniversalClient, namespace string, ttl time.Duration) *Redis {
	return &Redis{rdb: client, ns: namespace, ttl: ttl}
}

func (s *Redis) key(tag string) string { return "tag:" + s.ns + ":" + tag }

func (s *Redis) seqKey() string { return "tagseq:" + s.ns }

// CounterTTL is the lifetime of a counter after its last bump; 0 means forever.
func (s *Redis) CounterTTL() time.Duration { return s.ttl }

func (s *Redis) Checksum(ctx context.Context, tags []string) (uint64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = s.key(t)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}

	counters := make([]uint64, len(tags))
	for i, v := range vals {
		var raw string
		switch vv := v.(type) {
		case nil:
			continue
		case string:
			raw = vv
		case []byte:
			raw = string(vv)
		default:
			raw = fmt.Sprint(vv)
		}
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("redis tag parse at %s: %w", tags[i], err)
		}
		counters[i] = u
	}
	return sum(0, tags, counters), nil
}

// Invalidate pipelines INCR for all tags in one round-trip. With a TTL it
// reserves one sequence value per tag, then pipelines SET with expiry.
func (s *Redis) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if s.ttl <= 0 {
		_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
			for _, t := range tags {
				p.Incr(ctx, s.key(t))
			}
			return nil
		})
		return err
	}

	last, err := s.rdb.IncrBy(ctx, s.seqKey(), int64(len(tags))).Result()
	if err != nil {
		return err
	}
	first := last - int64(len(tags)) + 1
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, t := range tags {
			p.Set(ctx, s.key(t), first+int64(i), s.ttl)
		}
		return nil
	})
	return err
}

// Cleanup is not applicable (Redis handles expiry if TTL is set).
func (s *Redis) Cleanup(time.Duration) {}

func (s *Redis) Close(context.Context) error { return s.rdb.Close() }

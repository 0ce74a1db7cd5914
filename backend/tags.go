package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	ts "github.com/unkn0wn-root/varcache/tagstore"
)

const (
	defaultTagCleanup   = time.Hour
	defaultTagRetention = 30 * 24 * time.Hour
)

// OpenTagStore builds the tag counter store for rawURL:
//
//	memory://?cleanup=1h&retention=720h    in-process (single replica only)
//	redis://host:6379/1?ttl=720h           shared counters in redis
//
// Counters are keyed "tag:<namespace>:<tag>"; the "namespace" query parameter
// overrides namespace. An empty rawURL means memory://.
func OpenTagStore(_ context.Context, rawURL, namespace string) (ts.TagStore, error) {
	if rawURL == "" {
		rawURL = "memory://"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	p := newParams(u)

	switch strings.ToLower(u.Scheme) {
	case "memory":
		cleanup := p.durationParam("cleanup", defaultTagCleanup)
		retention := p.durationParam("retention", defaultTagRetention)
		if p.err != nil {
			return nil, p.err
		}
		return ts.NewLocal(cleanup, retention), nil
	case "redis", "rediss":
		ns := p.stringParam("namespace", namespace)
		ttl := p.durationParam("ttl", 0)
		if p.err != nil {
			return nil, p.err
		}
		opts, err := goredis.ParseURL(strip(u, "namespace", "ttl").String())
		if err != nil {
			return nil, err
		}
		client := goredis.NewClient(opts)
		if ttl > 0 {
			return ts.NewRedisWithTTL(client, ns, ttl), nil
		}
		return ts.NewRedis(client, ns), nil
	default:
		return nil, fmt.Errorf("%w: tag store %q", ErrUnknownScheme, u.Scheme)
	}
}

package backend

import (
	"context"
	"net/url"
	"time"

	goredis "github.com/redis/go-redis/v9"
	valkeylib "github.com/valkey-io/valkey-go"

	pr "github.com/unkn0wn-root/varcache/provider"
	"github.com/unkn0wn-root/varcache/provider/bigcache"
	"github.com/unkn0wn-root/varcache/provider/redis"
	"github.com/unkn0wn-root/varcache/provider/ristretto"
	"github.com/unkn0wn-root/varcache/provider/valkey"
)

const (
	defaultMaxItems   = 100_000
	defaultLifeWindow = 10 * time.Minute
)

func openRistretto(syncDefault bool) Factory {
	return func(_ context.Context, u *url.URL) (pr.Provider, error) {
		p := newParams(u)
		cfg := ristretto.DefaultConfig(int64(p.intParam("max_items", defaultMaxItems)))
		cfg.Sync = p.boolParam("sync", syncDefault)
		cfg.Metrics = p.boolParam("metrics", false)
		if p.err != nil {
			return nil, p.err
		}
		return ristretto.New(cfg)
	}
}

func openBigcache(ctx context.Context, u *url.URL) (pr.Provider, error) {
	p := newParams(u)
	cfg := bigcache.Config{
		LifeWindow:         p.durationParam("life_window", defaultLifeWindow),
		CleanWindow:        p.durationParam("clean_window", 0),
		Shards:             p.intParam("shards", 0),
		MaxEntrySize:       p.intParam("max_entry_size", 0),
		HardMaxCacheSizeMB: p.intParam("max_size_mb", 0),
	}
	if p.err != nil {
		return nil, p.err
	}
	return bigcache.New(ctx, cfg)
}

func openRedis(_ context.Context, u *url.URL) (pr.Provider, error) {
	p := newParams(u)
	maxTTL := p.durationParam("max_ttl", 0)
	if p.err != nil {
		return nil, p.err
	}
	opts, err := goredis.ParseURL(strip(u, "max_ttl").String())
	if err != nil {
		return nil, err
	}
	return redis.New(redis.Config{
		Client:      goredis.NewClient(opts),
		CloseClient: true,
		MaxTTL:      maxTTL,
	})
}

func openValkey(ctx context.Context, u *url.URL) (pr.Provider, error) {
	p := newParams(u)
	maxTTL := p.durationParam("max_ttl", 0)
	if p.err != nil {
		return nil, p.err
	}
	// valkey-go parses the redis URL forms
	ru := strip(u, "max_ttl")
	if ru.Scheme == "valkeys" {
		ru.Scheme = "rediss"
	} else {
		ru.Scheme = "redis"
	}
	opt, err := valkeylib.ParseURL(ru.String())
	if err != nil {
		return nil, err
	}
	client, err := valkeylib.NewClient(opt)
	if err != nil {
		return nil, err
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return valkey.New(valkey.Config{Client: client, CloseClient: true, MaxTTL: maxTTL})
}

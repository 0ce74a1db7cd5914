// Package backend opens providers and tag stores from URLs.
//
//	memory://?max_items=100000                 ristretto, read-after-write
//	ristretto://?max_items=100000&sync=false   ristretto
//	bigcache://?life_window=10m&shards=1024    bigcache
//	redis://:pass@host:6379/0?max_ttl=24h      go-redis (rediss:// for TLS)
//	valkey://host:6379/0?max_ttl=24h           valkey-go
//
// Schemes are looked up in a Registry; Register adds application-specific ones.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/varcache/provider"
)

var (
	ErrUnknownScheme = errors.New("backend: unknown scheme")
	ErrInvalidURL    = errors.New("backend: invalid url")
)

// Factory builds a provider from a parsed URL.
type Factory func(ctx context.Context, u *url.URL) (pr.Provider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in schemes.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("memory", openRistretto(true))
	r.Register("ristretto", openRistretto(false))
	r.Register("bigcache", openBigcache)
	r.Register("redis", openRedis)
	r.Register("rediss", openRedis)
	r.Register("valkey", openValkey)
	r.Register("valkeys", openValkey)
	return r
}

// Register adds or replaces the factory for scheme.
func (r *Registry) Register(scheme string, f Factory) {
	r.mu.Lock()
	r.factories[strings.ToLower(scheme)] = f
	r.mu.Unlock()
}

func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for s := range r.factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open parses rawURL and builds the provider registered for its scheme.
func (r *Registry) Open(ctx context.Context, rawURL string) (pr.Provider, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(u.Scheme)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}
	p, err := f(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", u.Scheme, err)
	}
	return p, nil
}

// params reads typed query values, remembering the first parse error.
type params struct {
	q   url.Values
	err error
}

func newParams(u *url.URL) *params { return &params{q: u.Query()} }

func (p *params) stringParam(key, def string) string {
	if v := p.q.Get(key); v != "" {
		return v
	}
	return def
}

func (p *params) intParam(key string, def int) int {
	v := p.q.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %w", ErrInvalidURL, key, v, err)
	}
	return n
}

func (p *params) boolParam(key string, def bool) bool {
	v := p.q.Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %w", ErrInvalidURL, key, v, err)
	}
	return b
}

func (p *params) durationParam(key string, def time.Duration) time.Duration {
	v := p.q.Get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %w", ErrInvalidURL, key, v, err)
	}
	return d
}

// strip removes our own parameters so client URL parsers don't reject them.
func strip(u *url.URL, keys ...string) *url.URL {
	out := *u
	q := out.Query()
	for _, k := range keys {
		q.Del(k)
	}
	out.RawQuery = q.Encode()
	return &out
}

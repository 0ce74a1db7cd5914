package varcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/varcache/codec"
	pr "github.com/unkn0wn-root/varcache/provider"
	ts "github.com/unkn0wn-root/varcache/tagstore"
)

type SetCostFunc func(storageKey string, raw []byte, isRedirect bool) int64

type Cache[V any] = VariationCache[V] // alias -> varcache.Cache[Page]

// VariationCache is the provider-agnostic variation cache API.
// keys are the base keys of an item; they are joined with ':'.
type VariationCache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	Get(ctx context.Context, keys []string, opts ...GetOption) (v V, ok bool, err error)
	GetEntry(ctx context.Context, keys []string, opts ...GetOption) (e Entry[V], ok bool, err error)
	Set(ctx context.Context, keys []string, value V, cb Cacheability) error

	// Delete and Invalidate act on the variation resolved for the current
	// request only. Use InvalidateTags to reach every variation.
	Delete(ctx context.Context, keys []string) error
	Invalidate(ctx context.Context, keys []string) error
	InvalidateTags(ctx context.Context, tags ...string) error

	// Chain returns the redirect path the current request resolves to.
	Chain(ctx context.Context, keys []string) ([]Link, error)
}

// ContextResolver turns a cache context name into a token for the request
// carried by ctx. cachecontext.Registry implements it.
type ContextResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

type ContextResolverFunc func(ctx context.Context, name string) (string, error)

func (f ContextResolverFunc) Resolve(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// Options tune the behavior of the variation cache.
// Namespace, Provider, Codec and Contexts are required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Namespace string // e.g. "render", "group_permissions"
	Provider  pr.Provider
	Codec     c.Codec[V]
	Contexts  ContextResolver

	Logger          Logger           // if nil, NopLogger is used
	Hooks           Hooks            // if nil, NopHooks is used
	Tags            ts.TagStore      // nil => tagstore.Local (in-process)
	MaxRedirects    int              // 0 => 16
	CleanupInterval time.Duration    // local tag store sweep; 0 => 1h
	TagRetention    time.Duration    // 0 => 30d
	ComputeSetCost  SetCostFunc      // default 1
	Now             func() time.Time // default time.Now
	Disabled        bool             // default false (enabled)
}

func New[V any](opts Options[V]) (VariationCache[V], error) {
	c, err := newCache[V](opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

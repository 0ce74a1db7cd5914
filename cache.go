package varcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/varcache/codec"
	"github.com/unkn0wn-root/varcache/internal/keys"
	"github.com/unkn0wn-root/varcache/internal/wire"
	pr "github.com/unkn0wn-root/varcache/provider"
	ts "github.com/unkn0wn-root/varcache/tagstore"
)

const (
	defaultTagRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type cache[V any] struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[V]
	contexts       ContextResolver
	tags           ts.TagStore
	log            Logger
	hooks          Hooks
	enabled        bool
	maxRedirects   int
	computeSetCost SetCostFunc
	now            func() time.Time
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, errors.New("varcache: provider is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("varcache: codec is required")
	}
	if opts.Contexts == nil {
		return nil, errors.New("varcache: context resolver is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("varcache: namespace is required")
	}

	c := &cache[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		contexts: opts.Contexts,
		enabled:  !opts.Disabled,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.maxRedirects = coalesce(opts.MaxRedirects, defaultMaxRedirects)

	if opts.Now != nil {
		c.now = opts.Now
	} else {
		c.now = time.Now
	}
	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(string, []byte, bool) int64 { return 1 }
	}

	if opts.Tags != nil {
		c.tags = opts.Tags
	} else {
		// default to in-process counters with periodic cleanup
		c.tags = ts.NewLocal(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.TagRetention, defaultTagRetention),
		)
	}
	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	// tag store first (best effort)
	if c.tags != nil {
		_ = c.tags.Close(ctx)
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, base []string, opts ...GetOption) (V, bool, error) {
	e, ok, err := c.GetEntry(ctx, base, opts...)
	return e.Value, ok, err
}

func (c *cache[V]) GetEntry(ctx context.Context, base []string, opts ...GetOption) (Entry[V], bool, error) {
	var zero Entry[V]
	if !c.enabled {
		return zero, false, nil
	}
	if len(base) == 0 {
		return zero, false, ErrEmptyKeys
	}
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	chain, err := c.resolve(ctx, base)
	if err != nil {
		return zero, false, err
	}
	last := chain[len(chain)-1]
	hops := len(chain) - 1
	if last.Kind != LinkEntry {
		c.hooks.ChainResolved(c.ns, hops, false)
		return zero, false, nil
	}

	valid := c.valid(ctx, last.entry)
	if !valid && !o.allowInvalid {
		c.hooks.ChainResolved(c.ns, hops, false)
		return zero, false, nil
	}

	v, err := c.codec.Decode(last.entry.Payload)
	if err != nil {
		c.selfHeal(ctx, c.storageKey(last.Key), "value_decode")
		c.hooks.ChainResolved(c.ns, hops, false)
		return zero, false, nil
	}
	c.hooks.ChainResolved(c.ns, hops, true)

	out := Entry[V]{
		Key:      last.Key,
		Value:    v,
		Tags:     last.entry.Tags,
		Contexts: last.entry.Contexts,
		Valid:    valid,
	}
	if last.entry.Expire != 0 {
		out.Expire = time.Unix(0, last.entry.Expire)
	}
	return out, true, nil
}

func (c *cache[V]) Set(ctx context.Context, base []string, value V, cb Cacheability) error {
	if !c.enabled {
		return nil
	}
	if len(base) == 0 {
		return ErrEmptyKeys
	}
	if !cb.Cacheable() {
		c.hooks.UncacheableSkipped(keys.Join(base))
		return nil
	}

	contexts := keys.Contexts(cb.Contexts)
	target, err := c.cid(ctx, base, contexts)
	if err != nil {
		return err
	}

	chain, err := c.resolve(ctx, base)
	if err != nil {
		return err
	}
	if !reached(chain, target, contexts) {
		if err := c.reconcile(ctx, base, chain, contexts, target); err != nil {
			return err
		}
	}
	return c.writeEntry(ctx, target, value, contexts, keys.Contexts(cb.Tags), cb.MaxAge)
}

func (c *cache[V]) Delete(ctx context.Context, base []string) error {
	if !c.enabled {
		return nil
	}
	if len(base) == 0 {
		return ErrEmptyKeys
	}
	chain, err := c.resolve(ctx, base)
	if err != nil {
		return err
	}
	last := chain[len(chain)-1]
	if err := c.provider.Del(ctx, c.storageKey(last.Key)); err != nil {
		return fmt.Errorf("varcache: delete %q: %w", last.Key, err)
	}
	c.log.Debug("deleted variation", Fields{"key": last.Key})
	return nil
}

func (c *cache[V]) Invalidate(ctx context.Context, base []string) error {
	if !c.enabled {
		return nil
	}
	if len(base) == 0 {
		return ErrEmptyKeys
	}
	chain, err := c.resolve(ctx, base)
	if err != nil {
		return err
	}
	last := chain[len(chain)-1]
	if last.Kind != LinkEntry || last.entry.Invalid {
		return nil
	}

	sk := c.storageKey(last.Key)
	var ttl time.Duration
	if last.entry.Expire != 0 {
		ttl = time.Unix(0, last.entry.Expire).Sub(c.now())
		if ttl <= 0 {
			return c.provider.Del(ctx, sk)
		}
	}

	e := last.entry
	e.Invalid = true
	frame, err := wire.EncodeEntry(e)
	if err != nil {
		return err
	}
	ok, err := c.provider.Set(ctx, sk, frame, c.computeSetCost(sk, frame, false), ttl)
	if err != nil {
		return fmt.Errorf("varcache: invalidate %q: %w", last.Key, err)
	}
	if !ok {
		// the store refused the rewrite; dropping the entry is equally correct
		c.hooks.ProviderSetRejected(sk, false)
		return c.provider.Del(ctx, sk)
	}
	c.log.Debug("invalidated variation", Fields{"key": last.Key})
	return nil
}

func (c *cache[V]) InvalidateTags(ctx context.Context, tags ...string) error {
	if !c.enabled {
		return nil
	}
	tags = keys.Contexts(tags)
	if len(tags) == 0 {
		return nil
	}
	if err := c.tags.Invalidate(ctx, tags...); err != nil {
		return fmt.Errorf("varcache: invalidate tags: %w", err)
	}
	c.log.Debug("invalidated tags", Fields{"tags": tags})
	return nil
}

func (c *cache[V]) Chain(ctx context.Context, base []string) ([]Link, error) {
	if !c.enabled {
		return nil, nil
	}
	if len(base) == 0 {
		return nil, ErrEmptyKeys
	}
	chain, err := c.resolve(ctx, base)
	if err != nil {
		return nil, err
	}
	return links(chain), nil
}

func (c *cache[V]) writeEntry(ctx context.Context, id string, value V, contexts, tags []string, maxAge time.Duration) error {
	payload, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	sum, err := c.tags.Checksum(ctx, tags)
	if err != nil {
		c.hooks.TagChecksumError(len(tags), err)
		return fmt.Errorf("varcache: tag checksum: %w", err)
	}

	if len(tags) > 0 {
		if ex, ok := c.tags.(ts.Expiring); ok {
			// never outlive the counters the checksum was taken against
			if limit := ex.CounterTTL(); limit > 0 && (maxAge < 0 || maxAge > limit) {
				maxAge = limit
			}
		}
	}

	var ttl time.Duration // 0 => no expiry at the provider
	var expire int64
	if maxAge > 0 {
		ttl = maxAge
		expire = c.now().Add(maxAge).UnixNano()
	}

	frame, err := wire.EncodeEntry(wire.Entry{
		Expire:   expire,
		Checksum: sum,
		Tags:     tags,
		Contexts: contexts,
		Payload:  payload,
	})
	if err != nil {
		return err
	}

	sk := c.storageKey(id)
	ok, err := c.provider.Set(ctx, sk, frame, c.computeSetCost(sk, frame, false), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(sk, false)
		c.log.Debug("entry Set rejected by provider (pressure)", Fields{"key": id})
	}
	return nil
}

// writeRedirect stores a permanent, untagged redirect at id. prev is the
// redirect being replaced, if any.
func (c *cache[V]) writeRedirect(ctx context.Context, id string, prev, contexts []string) error {
	frame, err := wire.EncodeRedirect(contexts)
	if err != nil {
		return err
	}
	sk := c.storageKey(id)
	ok, err := c.provider.Set(ctx, sk, frame, c.computeSetCost(sk, frame, true), 0)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(sk, true)
		c.log.Debug("redirect Set rejected by provider (pressure)", Fields{"key": id})
		return nil
	}
	if prev != nil {
		c.hooks.RedirectNarrowed(sk, prev, contexts)
		c.log.Debug("redirect replaced", Fields{"key": id, "from": prev, "to": contexts})
	} else {
		c.hooks.RedirectWritten(sk, contexts)
		c.log.Debug("redirect written", Fields{"key": id, "contexts": contexts})
	}
	return nil
}

func (c *cache[V]) valid(ctx context.Context, e wire.Entry) bool {
	if e.Invalid {
		return false
	}
	if e.Expire != 0 && !c.now().Before(time.Unix(0, e.Expire)) {
		return false
	}
	sum, err := c.tags.Checksum(ctx, e.Tags)
	if err != nil {
		// conservative: an unverifiable entry is not served as valid
		c.hooks.TagChecksumError(len(e.Tags), err)
		c.log.Warn("tag checksum error", Fields{"tags": e.Tags, "err": err})
		return false
	}
	return sum == e.Checksum
}

func (c *cache[V]) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = c.provider.Del(ctx, storageKey)
	c.hooks.EntryCorrupt(storageKey, reason)
	c.log.Debug("dropped unreadable frame", Fields{"key": storageKey, "reason": reason})
}

func (c *cache[V]) storageKey(id string) string {
	// isolate by namespace
	return "var:" + c.ns + ":" + id
}

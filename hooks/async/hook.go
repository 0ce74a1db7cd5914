// Package asynchook moves hook calls off the request path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{ResolvedEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := varcache.New[Page](varcache.Options[Page]{
//	    Namespace: "render",
//	    Provider:  provider,
//	    Codec:     codec.JSON[Page]{},
//	    Contexts:  registry,
//	    Hooks:     hooks, // or raw if you don't want async
//	})
//
// Events are dropped when the queue is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/varcache"
)

type Hooks struct {
	inner   varcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Uint64
}

var _ varcache.Hooks = (*Hooks)(nil)

func New(inner varcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ChainResolved(ns string, hops int, hit bool) {
	h.try(func() { h.inner.ChainResolved(ns, hops, hit) })
}
func (h *Hooks) RedirectWritten(k string, contexts []string) {
	h.try(func() { h.inner.RedirectWritten(k, contexts) })
}
func (h *Hooks) RedirectNarrowed(k string, from, to []string) {
	h.try(func() { h.inner.RedirectNarrowed(k, from, to) })
}
func (h *Hooks) EntryCorrupt(k, r string) { h.try(func() { h.inner.EntryCorrupt(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string, redirect bool) {
	h.try(func() { h.inner.ProviderSetRejected(k, redirect) })
}
func (h *Hooks) UncacheableSkipped(id string) { h.try(func() { h.inner.UncacheableSkipped(id) }) }
func (h *Hooks) TagChecksumError(n int, err error) {
	h.try(func() { h.inner.TagChecksumError(n, err) })
}

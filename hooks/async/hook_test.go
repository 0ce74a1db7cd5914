package asynchook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/varcache"
)

type countingHooks struct {
	varcache.NopHooks
	mu      sync.Mutex
	corrupt []string
	block   chan struct{}
}

func (c *countingHooks) EntryCorrupt(k, reason string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.corrupt = append(c.corrupt, reason)
	c.mu.Unlock()
}

func TestAsyncDeliversBeforeClose(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.EntryCorrupt("var:ns:page", "corrupt")
	}
	h.Close()
	require.Len(t, inner.corrupt, 10)
	require.Zero(t, h.Dropped())

	// after Close events are dropped, never panic
	h.EntryCorrupt("var:ns:page", "corrupt")
	require.Equal(t, uint64(1), h.Dropped())
	h.Close()
}

func TestAsyncDropsWhenFull(t *testing.T) {
	inner := &countingHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event held by the worker, one queued, the rest dropped
	for i := 0; i < 5; i++ {
		h.EntryCorrupt("k", "corrupt")
	}
	require.GreaterOrEqual(t, h.Dropped(), uint64(3))
	close(inner.block)
	h.Close()
}

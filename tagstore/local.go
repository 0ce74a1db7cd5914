package tagstore

import (
	"context"
	"sync"
	"time"
)

type localTagEntry struct {
	Count     uint64
	UpdatedAt time.Time
}

// Local keeps tag counters in-process (default).
// Optional cleanup loop prunes counters not bumped within retention. Every
// prune advances the store epoch, so checksums taken before it never match
// again and a pruned counter cannot revive an invalidated entry.
type Local struct {
	mu     sync.RWMutex
	tags   map[string]localTagEntry
	epoch  uint64
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ TagStore = (*Local)(nil)

func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{tags: make(map[string]localTagEntry)}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

// Checksum acquires the read lock once for all tags.
func (s *Local) Checksum(_ context.Context, tags []string) (uint64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	counters := make([]uint64, len(tags))
	s.mu.RLock()
	epoch := s.epoch
	for i, t := range tags {
		counters[i] = s.tags[t].Count
	}
	s.mu.RUnlock()
	return sum(epoch, tags, counters), nil
}

func (s *Local) Invalidate(_ context.Context, tags ...string) error {
	now := time.Now()
	s.mu.Lock()
	for _, t := range tags {
		e := s.tags[t]
		e.Count++
		e.UpdatedAt = now
		s.tags[t] = e
	}
	s.mu.Unlock()
	return nil
}

// Count returns the raw counter of one tag.
// A pruned tag reads 0 again; its checksums still differ through Epoch.
func (s *Local) Count(tag string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tags[tag].Count
}

// Epoch counts prunes that removed at least one counter.
func (s *Local) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	pruned := false
	for t, e := range s.tags {
		if !e.UpdatedAt.IsZero() && e.UpdatedAt.Before(cutoff) {
			delete(s.tags, t)
			pruned = true
		}
	}
	if pruned {
		s.epoch++
	}
	s.mu.Unlock()
}

func (s *Local) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}

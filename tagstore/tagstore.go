// Package tagstore keeps per-tag invalidation counters.
//
// An entry records Checksum(tags) when it is written. Invalidating any of its
// tags bumps a counter, the checksum changes, and the entry is treated as
// invalid on the next read. Missing counters are 0.
//
// A checksum must never return to an earlier value once a tag is bumped, or a
// stale entry would validate again. Stores that drop counters account for it:
// Local folds a prune epoch into every checksum, Redis draws expiring counters
// from a sequence and reports the counter lifetime through Expiring.
package tagstore

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
)

// TagStore abstracts where tag counters live.
// Use Local for a single process, Redis to share invalidations across replicas.
type TagStore interface {
	// Checksum digests the current counters of tags. No tags => 0.
	Checksum(ctx context.Context, tags []string) (uint64, error)
	// Invalidate atomically bumps the counter of every tag.
	Invalidate(ctx context.Context, tags ...string) error
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

// Expiring is implemented by stores whose counters can vanish on their own.
// Tagged entries must not outlive CounterTTL: an entry recorded against a
// missing counter would match again once a later bump has expired.
type Expiring interface {
	CounterTTL() time.Duration
}

// sum folds the epoch and the (tag, counter) pairs in the given order into one
// digest. Callers pass tags sorted so equal sets hash equally.
func sum(epoch uint64, tags []string, counters []uint64) uint64 {
	if len(tags) == 0 {
		return 0
	}
	d := xxhash.New()
	var u8 [8]byte
	binary.BigEndian.PutUint64(u8[:], epoch)
	_, _ = d.Write(u8[:])
	for i, t := range tags {
		_, _ = d.WriteString(t)
		_, _ = d.Write([]byte{0})
		binary.BigEndian.PutUint64(u8[:], counters[i])
		_, _ = d.Write(u8[:])
	}
	return d.Sum64()
}

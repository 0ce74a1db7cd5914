package varcache

import (
	"time"

	"github.com/unkn0wn-root/varcache/internal/keys"
)

// Permanent marks an item that never expires on its own.
const Permanent time.Duration = -1

// Cacheability describes how a value may be cached.
//
//	MaxAge == 0          uncacheable, Set is a no-op
//	MaxAge <  0          permanent (use Permanent)
//	MaxAge >  0          expires after MaxAge
type Cacheability struct {
	Contexts []string
	Tags     []string
	MaxAge   time.Duration
}

// Merge combines the cacheability of two dependencies: contexts and tags are
// unioned and the more restrictive max-age wins.
func (cb Cacheability) Merge(other Cacheability) Cacheability {
	return Cacheability{
		Contexts: keys.Union(keys.Contexts(cb.Contexts), keys.Contexts(other.Contexts)),
		Tags:     keys.Union(keys.Contexts(cb.Tags), keys.Contexts(other.Tags)),
		MaxAge:   minMaxAge(cb.MaxAge, other.MaxAge),
	}
}

// Cacheable reports whether Set would store a value with this metadata.
func (cb Cacheability) Cacheable() bool { return cb.MaxAge != 0 }

func minMaxAge(a, b time.Duration) time.Duration {
	switch {
	case a < 0:
		if b < 0 {
			return Permanent
		}
		return b
	case b < 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

// Entry is a cached value with its metadata.
type Entry[V any] struct {
	Key      string // cache id the value was found under
	Value    V
	Tags     []string
	Contexts []string
	Expire   time.Time // zero => permanent
	// Valid is false for entries that expired, were invalidated, or carry an
	// invalidated tag. Only returned with AllowInvalid.
	Valid bool
}

type GetOption func(*getOptions)

type getOptions struct {
	allowInvalid bool
}

// AllowInvalid makes Get return expired or invalidated entries with Valid=false
// instead of a miss. Useful to serve stale content while regenerating.
func AllowInvalid() GetOption {
	return func(o *getOptions) { o.allowInvalid = true }
}

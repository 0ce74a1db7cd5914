package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/varcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ResolvedEvery uint64
	CorruptEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	// Storage keys embed context tokens (roles, urls, user ids).
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	resolvedCtr atomic.Uint64
	corruptCtr  atomic.Uint64
}

var _ varcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ChainResolved(ns string, hops int, hit bool) {
	if h.l == nil || !sample(h.opts.ResolvedEvery, &h.resolvedCtr) {
		return
	}
	h.l.Debug("varcache.chain_resolved",
		"ns", ns,
		"hops", hops,
		"hit", hit)
}

func (h *Hooks) RedirectWritten(storageKey string, contexts []string) {
	if h.l == nil {
		return
	}
	h.l.Debug("varcache.redirect_written",
		"key", h.redact(storageKey),
		"contexts", contexts)
}

func (h *Hooks) RedirectNarrowed(storageKey string, from, to []string) {
	if h.l == nil {
		return
	}
	h.l.Info("varcache.redirect_narrowed",
		"key", h.redact(storageKey),
		"from", from,
		"to", to)
}

func (h *Hooks) EntryCorrupt(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.CorruptEvery, &h.corruptCtr) {
		return
	}
	h.l.Warn("varcache.entry_corrupt",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string, isRedirect bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("varcache.provider_set_rejected",
		"key", h.redact(storageKey),
		"is_redirect", isRedirect)
}

func (h *Hooks) UncacheableSkipped(id string) {
	if h.l == nil {
		return
	}
	h.l.Debug("varcache.uncacheable_skipped", "key", h.redact(id))
}

func (h *Hooks) TagChecksumError(count int, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("varcache.tag_checksum_error",
		"count", count,
		"err", err)
}

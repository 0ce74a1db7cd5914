package varcache

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/varcache/internal/keys"
	"github.com/unkn0wn-root/varcache/internal/wire"
)

const defaultMaxRedirects = 16

type LinkKind uint8

const (
	LinkMiss LinkKind = iota
	LinkRedirect
	LinkEntry
)

func (k LinkKind) String() string {
	switch k {
	case LinkRedirect:
		return "redirect"
	case LinkEntry:
		return "entry"
	default:
		return "miss"
	}
}

// Link is one visited step of a redirect chain.
// Contexts are the redirect's contexts, or the contexts an entry was stored with.
type Link struct {
	Key      string
	Kind     LinkKind
	Contexts []string
}

// step carries the decoded entry frame alongside the public link.
type step struct {
	Link
	entry wire.Entry
}

// resolve walks from the base id through redirects. It always returns at least
// one step on success; the last step is a miss or an entry.
func (c *cache[V]) resolve(ctx context.Context, base []string) ([]step, error) {
	id := keys.Join(base)
	seen := make(map[string]struct{}, 2)
	out := make([]step, 0, 2)

	for {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %q visited twice", ErrRedirectCycle, id)
		}
		if len(out) > c.maxRedirects {
			return nil, fmt.Errorf("%w: more than %d redirects from %q", ErrRedirectCycle, c.maxRedirects, out[0].Key)
		}
		seen[id] = struct{}{}

		sk := c.storageKey(id)
		raw, ok, err := c.provider.Get(ctx, sk)
		if err != nil {
			return nil, err
		}
		if !ok {
			return append(out, step{Link: Link{Key: id, Kind: LinkMiss}}), nil
		}

		kind, err := wire.KindOf(raw)
		if err != nil {
			c.selfHeal(ctx, sk, "corrupt")
			return append(out, step{Link: Link{Key: id, Kind: LinkMiss}}), nil
		}

		if kind == wire.KindEntry {
			e, err := wire.DecodeEntry(raw)
			if err != nil {
				c.selfHeal(ctx, sk, "corrupt")
				return append(out, step{Link: Link{Key: id, Kind: LinkMiss}}), nil
			}
			return append(out, step{
				Link:  Link{Key: id, Kind: LinkEntry, Contexts: e.Contexts},
				entry: e,
			}), nil
		}

		contexts, err := wire.DecodeRedirect(raw)
		if err != nil {
			c.selfHeal(ctx, sk, "corrupt")
			return append(out, step{Link: Link{Key: id, Kind: LinkMiss}}), nil
		}
		out = append(out, step{Link: Link{Key: id, Kind: LinkRedirect, Contexts: contexts}})

		if id, err = c.cid(ctx, base, contexts); err != nil {
			return nil, err
		}
	}
}

// cid resolves contexts (sorted) and appends their tokens to the base keys.
func (c *cache[V]) cid(ctx context.Context, base []string, contexts []string) (string, error) {
	if len(contexts) == 0 {
		return keys.Join(base), nil
	}
	tokens := make([]string, len(contexts))
	for i, name := range contexts {
		tok, err := c.contexts.Resolve(ctx, name)
		if err != nil {
			return "", &ContextError{Context: name, Err: err}
		}
		tokens[i] = tok
	}
	return keys.Join(base, tokens...), nil
}

// reconcile makes the chain lead to target (the id for contexts) before the
// entry is written. It runs whenever reached reports false.
func (c *cache[V]) reconcile(ctx context.Context, base []string, chain []step, contexts []string, target string) error {
	var resolved []string // contexts the walk has already resolved

	for _, st := range chain {
		if st.Kind != LinkRedirect {
			if st.Key == target {
				return nil // the entry write takes this slot
			}
			// end of the current path: send it on to the new contexts
			return c.writeRedirect(ctx, st.Key, nil, contexts)
		}
		if keys.Subset(st.Contexts, contexts) {
			resolved = st.Contexts
			continue
		}

		common := keys.Intersect(st.Contexts, contexts)
		if len(common) == 0 {
			return &ConflictError{Key: st.Key, Existing: st.Contexts, New: contexts}
		}
		if keys.Subset(common, resolved) {
			// nothing to share beyond what is already resolved at this point
			return c.writeRedirect(ctx, st.Key, st.Contexts, contexts)
		}

		if err := c.writeRedirect(ctx, st.Key, st.Contexts, common); err != nil {
			return err
		}
		if keys.Equal(common, contexts) {
			return nil // the narrowed redirect now leads straight to target
		}
		next, err := c.cid(ctx, base, common)
		if err != nil {
			return err
		}
		if next == target {
			return nil
		}
		return c.writeRedirect(ctx, next, nil, contexts)
	}
	return nil
}

// reached reports whether the walk already arrives at target through a
// redirect declaring exactly contexts. Equal keys alone are not enough: two
// context sets can resolve to the same tokens.
func reached(chain []step, target string, contexts []string) bool {
	for i, st := range chain {
		if st.Key != target {
			continue
		}
		if i == 0 {
			return len(contexts) == 0
		}
		return keys.Equal(chain[i-1].Contexts, contexts)
	}
	return false
}

func links(chain []step) []Link {
	out := make([]Link, len(chain))
	for i, st := range chain {
		out[i] = st.Link
	}
	return out
}

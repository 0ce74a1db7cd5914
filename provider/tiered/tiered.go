// Package tiered composes providers into an ordered lookup, typically a small
// in-process tier in front of a shared remote one.
package tiered

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	pr "github.com/unkn0wn-root/varcache/provider"
)

type Outcome uint8

const (
	Miss Outcome = iota
	Hit
	Failed
	Skipped // an earlier tier already answered
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "miss"
	}
}

// Result is what one tier did for one lookup.
type Result struct {
	Tier    string
	Outcome Outcome
	Err     error
}

type Tier struct {
	Name     string
	Provider pr.Provider
	// BackfillTTL bounds copies made into this tier after a hit further down.
	// 0 copies without expiry; entry frames still carry their own expiry.
	BackfillTTL time.Duration
}

// CostFunc prices a value copied into an earlier tier on a hit.
type CostFunc func(key string, value []byte) int64

// Provider reads tiers in order and writes through to all of them.
type Provider struct {
	tiers    []Tier
	observer func(key string, results []Result)
	cost     CostFunc
}

var _ pr.Provider = (*Provider)(nil)

type Option func(*Provider)

// WithBackfillCost prices backfilled copies. A Get never sees the cost the
// value was first written with, so pass the same function the cache uses
// (varcache Options.ComputeSetCost). Default prices every copy at 1.
func WithBackfillCost(fn CostFunc) Option {
	return func(p *Provider) {
		if fn != nil {
			p.cost = fn
		}
	}
}

// WithObserver receives the per-tier results of every Get.
func WithObserver(fn func(key string, results []Result)) Option {
	return func(p *Provider) { p.observer = fn }
}

func New(tiers []Tier, opts ...Option) (*Provider, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tiered: at least one tier is required")
	}
	own := make([]Tier, len(tiers))
	for i, t := range tiers {
		if t.Name == "" {
			t.Name = "tier" + strconv.Itoa(i)
		}
		if t.Provider == nil {
			return nil, fmt.Errorf("tiered: tier %s has no provider", t.Name)
		}
		own[i] = t
	}
	p := &Provider{
		tiers: own,
		cost:  func(string, []byte) int64 { return 1 },
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Lookup walks the tiers in order and stops at the first hit. Failed tiers
// are recorded and skipped over. Tiers above the hit are backfilled.
func (p *Provider) Lookup(ctx context.Context, key string) ([]byte, bool, []Result) {
	results := make([]Result, len(p.tiers))
	for i, t := range p.tiers {
		results[i].Tier = t.Name
	}

	hit := -1
	var value []byte
	for i, t := range p.tiers {
		b, ok, err := t.Provider.Get(ctx, key)
		if err != nil {
			results[i].Outcome, results[i].Err = Failed, err
			continue
		}
		if !ok {
			continue
		}
		results[i].Outcome = Hit
		hit, value = i, b
		break
	}
	if hit < 0 {
		return nil, false, results
	}
	for i := hit + 1; i < len(p.tiers); i++ {
		results[i].Outcome = Skipped
	}
	if hit == 0 {
		return value, true, results
	}
	cost := p.cost(key, value)
	for i := 0; i < hit; i++ {
		if results[i].Outcome == Failed {
			continue
		}
		t := p.tiers[i]
		_, _ = t.Provider.Set(ctx, key, value, cost, t.BackfillTTL)
	}
	return value, true, results
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, results := p.Lookup(ctx, key)
	if p.observer != nil {
		p.observer(key, results)
	}
	if ok {
		return b, true, nil
	}
	// a miss is only trustworthy when every tier answered
	var errs []error
	for _, r := range results {
		if r.Outcome == Failed {
			errs = append(errs, r.Err)
		}
	}
	return nil, false, errors.Join(errs...)
}

// Set writes through. ok is false if any tier rejected the write.
func (p *Provider) Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	all := true
	var errs []error
	for _, t := range p.tiers {
		ok, err := t.Provider.Set(ctx, key, value, cost, ttl)
		if err != nil {
			errs = append(errs, err)
			all = false
			continue
		}
		all = all && ok
	}
	return all, errors.Join(errs...)
}

func (p *Provider) Del(ctx context.Context, key string) error {
	var errs []error
	for _, t := range p.tiers {
		if err := t.Provider.Del(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Provider) Close(ctx context.Context) error {
	var errs []error
	for _, t := range p.tiers {
		if err := t.Provider.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

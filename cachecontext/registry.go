// Package cachecontext maps cache context names (e.g. "user.roles", "url",
// "route.name:node") to concrete tokens for the current request.
//
// Contexts are registered explicitly at process start:
//
//	reg := cachecontext.NewRegistry()
//	reg.MustRegister("user.roles", cachecontext.Value("user.roles"))
//	reg.MustRegister("theme", cachecontext.Static("olivero"))
//
//	ctx = cachecontext.WithValues(ctx, map[string]string{"user.roles": "anon"})
//	tok, err := reg.Resolve(ctx, "user.roles") // "anon"
//
// A name of the form "base:param" that is not registered as a whole is looked
// up as "base" and its Func receives "param".
package cachecontext

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownContext   = errors.New("cachecontext: unknown cache context")
	ErrDuplicateContext = errors.New("cachecontext: context already registered")
	ErrMissingValue     = errors.New("cachecontext: no value for context in request")
)

// Func resolves one context for the request carried by ctx.
// param is empty unless the context was referenced as "name:param".
type Func func(ctx context.Context, param string) (string, error)

// Registry is safe for concurrent use. The zero value is not usable; call NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return fmt.Errorf("cachecontext: invalid registration for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateContext, name)
	}
	r.funcs[name] = fn
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Resolve returns the token for name. Unknown names are a configuration
// error and always return ErrUnknownContext.
func (r *Registry) Resolve(ctx context.Context, name string) (string, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	param := ""
	if !ok {
		if base, p, found := strings.Cut(name, ":"); found {
			fn, ok = r.funcs[base]
			param = p
		}
	}
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	tok, err := fn(ctx, param)
	if err != nil {
		return "", fmt.Errorf("cachecontext: resolve %q: %w", name, err)
	}
	return tok, nil
}

// Names lists registered contexts in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

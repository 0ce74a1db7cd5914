// Package varcachefx wires a variation cache backend into an fx application.
//
//	fx.New(
//	    fx.Supply(cfg),              // config.Config
//	    fx.Provide(zap.NewProduction),
//	    varcachefx.Module(),
//	    fx.Invoke(func(r *cachecontext.Registry) {
//	        r.MustRegister("user.roles", rolesFromRequest)
//	    }),
//	    fx.Provide(func(p varcachefx.Params) (varcache.Cache[Page], error) {
//	        return varcachefx.NewCache(p, codec.JSON[Page]{})
//	    }),
//	)
//
// The provider and tag store are shared by every cache built from Params and
// closed when the application stops.
package varcachefx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/varcache"
	"github.com/unkn0wn-root/varcache/backend"
	"github.com/unkn0wn-root/varcache/cachecontext"
	c "github.com/unkn0wn-root/varcache/codec"
	"github.com/unkn0wn-root/varcache/config"
	promhooks "github.com/unkn0wn-root/varcache/hooks/prom"
	zaplog "github.com/unkn0wn-root/varcache/log/zap"
	pr "github.com/unkn0wn-root/varcache/provider"
	ts "github.com/unkn0wn-root/varcache/tagstore"
)

func Module() fx.Option {
	return fx.Module(
		"varcachefx",
		fx.Decorate(func(log *zap.Logger) *zap.Logger {
			return log.Named("varcachefx")
		}),
		fx.Provide(
			backend.NewRegistry,
			newProvider,
			newTagStore,
			newHooks,
			fx.Private,
		),
		fx.Provide(cachecontext.NewRegistry, newParams),
	)
}

// Params carries the shared pieces a cache is built from.
type Params struct {
	Namespace    string
	MaxRedirects int
	Disabled     bool
	Provider     pr.Provider
	Tags         ts.TagStore
	Contexts     *cachecontext.Registry
	Logger       varcache.Logger
	Hooks        varcache.Hooks
}

// NewCache builds a cache over the shared provider. Closing the cache does not
// close the provider or tag store; the fx lifecycle does.
func NewCache[V any](p Params, codec c.Codec[V]) (varcache.VariationCache[V], error) {
	return varcache.New[V](varcache.Options[V]{
		Namespace:    p.Namespace,
		Provider:     sharedProvider{p.Provider},
		Codec:        codec,
		Contexts:     p.Contexts,
		Logger:       p.Logger,
		Hooks:        p.Hooks,
		Tags:         sharedTags{p.Tags},
		MaxRedirects: p.MaxRedirects,
		Disabled:     p.Disabled,
	})
}

type paramsIn struct {
	fx.In

	Config   config.Config
	Provider pr.Provider
	Tags     ts.TagStore
	Contexts *cachecontext.Registry
	Hooks    varcache.Hooks
	Log      *zap.Logger
}

func newParams(in paramsIn) Params {
	return Params{
		Namespace:    in.Config.Backend.Namespace,
		MaxRedirects: in.Config.Cache.MaxRedirects,
		Disabled:     in.Config.Cache.Disabled,
		Provider:     in.Provider,
		Tags:         in.Tags,
		Contexts:     in.Contexts,
		Logger:       zaplog.New(in.Log, in.Config.Backend.Namespace),
		Hooks:        in.Hooks,
	}
}

func newProvider(lc fx.Lifecycle, cfg config.Config, reg *backend.Registry, log *zap.Logger) (pr.Provider, error) {
	p, err := reg.Open(context.Background(), cfg.Backend.URL)
	if err != nil {
		return nil, err
	}
	log.Info("backend opened", zap.String("namespace", cfg.Backend.Namespace))
	lc.Append(fx.StopHook(func(ctx context.Context) error {
		return p.Close(ctx)
	}))
	return p, nil
}

func newTagStore(lc fx.Lifecycle, cfg config.Config) (ts.TagStore, error) {
	s, err := backend.OpenTagStore(context.Background(), cfg.Tags.URL, cfg.Backend.Namespace)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func(ctx context.Context) error {
		return s.Close(ctx)
	}))
	return s, nil
}

type hooksIn struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

// Prometheus hooks are installed when the application provides a Registerer.
func newHooks(in hooksIn) (varcache.Hooks, error) {
	if in.Registerer == nil {
		return varcache.NopHooks{}, nil
	}
	h, err := promhooks.New(in.Registerer)
	if err != nil {
		return nil, err
	}
	return h, nil
}

type sharedProvider struct{ pr.Provider }

func (sharedProvider) Close(context.Context) error { return nil }

type sharedTags struct{ ts.TagStore }

func (sharedTags) Close(context.Context) error { return nil }

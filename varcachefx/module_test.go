package varcachefx_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/varcache"
	"github.com/unkn0wn-root/varcache/cachecontext"
	"github.com/unkn0wn-root/varcache/codec"
	"github.com/unkn0wn-root/varcache/config"
	"github.com/unkn0wn-root/varcache/varcachefx"
)

func TestModuleBuildsWorkingCache(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Namespace = "render"
	reg := prometheus.NewRegistry()

	var vc varcache.Cache[string]
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(zap.NewNop),
		fx.Provide(func() prometheus.Registerer { return reg }),
		varcachefx.Module(),
		fx.Invoke(func(r *cachecontext.Registry) {
			r.MustRegister("user.roles", cachecontext.Value("role"))
		}),
		fx.Provide(func(p varcachefx.Params) (varcache.Cache[string], error) {
			return varcachefx.NewCache[string](p, codec.String{})
		}),
		fx.Populate(&vc),
	)
	app.RequireStart()

	ctx := cachecontext.WithValue(context.Background(), "role", "editor")
	require.NoError(t, vc.Set(ctx, []string{"page"}, "body", varcache.Cacheability{
		Contexts: []string{"user.roles"},
		MaxAge:   varcache.Permanent,
	}))
	got, ok, err := vc.Get(ctx, []string{"page"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "body", got)

	// closing one cache leaves the shared backend open
	require.NoError(t, vc.Close(ctx))
	_, ok, err = vc.Get(ctx, []string{"page"})
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, 1, testutil.CollectAndCount(reg, "varcache_redirects_written_total"))
	app.RequireStop()
}

func TestModuleRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.URL = "memcached://localhost"

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(zap.NewNop),
		varcachefx.Module(),
		fx.Invoke(func(varcachefx.Params) {}),
		fx.NopLogger,
	)
	require.Error(t, app.Err())
}

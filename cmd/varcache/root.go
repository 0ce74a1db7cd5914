package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/varcache"
	"github.com/unkn0wn-root/varcache/backend"
	"github.com/unkn0wn-root/varcache/cachecontext"
	"github.com/unkn0wn-root/varcache/codec"
	"github.com/unkn0wn-root/varcache/config"
	zaplog "github.com/unkn0wn-root/varcache/log/zap"
	pr "github.com/unkn0wn-root/varcache/provider"
	ts "github.com/unkn0wn-root/varcache/tagstore"
)

// openers build the backend pieces; tests swap them for in-memory fakes.
type openers struct {
	provider func(ctx context.Context, cfg config.Config) (pr.Provider, error)
	tags     func(ctx context.Context, cfg config.Config) (ts.TagStore, error)
}

func defaultOpeners() openers {
	reg := backend.NewRegistry()
	return openers{
		provider: func(ctx context.Context, cfg config.Config) (pr.Provider, error) {
			return reg.Open(ctx, cfg.Backend.URL)
		},
		tags: func(ctx context.Context, cfg config.Config) (ts.TagStore, error) {
			return backend.OpenTagStore(ctx, cfg.Tags.URL, cfg.Backend.Namespace)
		},
	}
}

type rootFlags struct {
	configPath string
	backendURL string
	tagsURL    string
	namespace  string
	logLevel   string
	contexts   map[string]string
}

func newRootCmd(op openers) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:          "varcache",
		Short:        "Inspect and edit variation cache chains",
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file (env VARCACHE_* also applies)")
	pf.StringVar(&f.backendURL, "backend", "", "backend URL, overrides backend.url")
	pf.StringVar(&f.tagsURL, "tags", "", "tag store URL, overrides tags.url")
	pf.StringVarP(&f.namespace, "namespace", "n", "", "cache namespace, overrides backend.namespace")
	pf.StringVar(&f.logLevel, "log-level", "", "debug | info | warn | error")
	pf.StringToStringVarP(&f.contexts, "context", "c", nil, "context token for this request, name=token (repeatable)")

	root.AddCommand(
		newChainCmd(f, op),
		newGetCmd(f, op),
		newSetCmd(f, op),
		newDeleteCmd(f, op),
		newInvalidateCmd(f, op),
		newInvalidateTagsCmd(f, op),
	)
	return root
}

func (f *rootFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.backendURL != "" {
		cfg.Backend.URL = f.backendURL
	}
	if f.tagsURL != "" {
		cfg.Tags.URL = f.tagsURL
	}
	if f.namespace != "" {
		cfg.Backend.Namespace = f.namespace
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return *cfg, cfg.Validate()
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// session is one opened cache plus what it needs to shut down.
type session struct {
	cache varcache.VariationCache[[]byte]
	log   *zap.Logger
}

func (s *session) close(ctx context.Context) {
	if err := s.cache.Close(ctx); err != nil {
		s.log.Warn("close cache", zap.Error(err))
	}
	_ = s.log.Sync()
}

func (f *rootFlags) open(ctx context.Context, op openers) (*session, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	contexts := cachecontext.NewRegistry()
	for name, token := range f.contexts {
		if err := contexts.Register(name, cachecontext.Static(token)); err != nil {
			return nil, err
		}
	}

	p, err := op.provider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tags, err := op.tags(ctx, cfg)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	vc, err := varcache.New[[]byte](varcache.Options[[]byte]{
		Namespace:    cfg.Backend.Namespace,
		Provider:     p,
		Codec:        codec.Bytes{},
		Contexts:     contexts,
		Tags:         tags,
		Logger:       zaplog.New(log, cfg.Backend.Namespace),
		MaxRedirects: cfg.Cache.MaxRedirects,
		Disabled:     cfg.Cache.Disabled,
	})
	if err != nil {
		_ = tags.Close(ctx)
		_ = p.Close(ctx)
		return nil, fmt.Errorf("open cache: %w", err)
	}
	log.Debug("cache opened",
		zap.String("namespace", cfg.Backend.Namespace),
		zap.Int("contexts", len(f.contexts)))
	return &session{cache: vc, log: log}, nil
}

// Package config loads application settings for processes that host a
// variation cache: a YAML file (optional) overlaid with VARCACHE_* env vars.
//
//	backend:
//	  url: redis://localhost:6379/0?max_ttl=24h
//	  namespace: render
//	tags:
//	  url: redis://localhost:6379/1
//	cache:
//	  max_redirects: 16
//	log:
//	  level: info
//	  format: json
//
// VARCACHE_BACKEND_URL overrides backend.url, and so on.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "VARCACHE"

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Tags    TagsConfig    `mapstructure:"tags"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
}

type BackendConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
}

type TagsConfig struct {
	// URL of the tag counter store; empty keeps counters in-process.
	URL string `mapstructure:"url"`
}

type CacheConfig struct {
	MaxRedirects int  `mapstructure:"max_redirects"`
	Disabled     bool `mapstructure:"disabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | console
}

func Default() Config {
	return Config{
		Backend: BackendConfig{URL: "memory://", Namespace: "default"},
		Cache:   CacheConfig{MaxRedirects: 16},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (if non-empty and present) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.namespace", d.Backend.Namespace)
	v.SetDefault("tags.url", d.Tags.URL)
	v.SetDefault("cache.max_redirects", d.Cache.MaxRedirects)
	v.SetDefault("cache.disabled", d.Cache.Disabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required"))
	}
	if c.Backend.Namespace == "" {
		errs = append(errs, errors.New("backend.namespace is required"))
	}
	if c.Cache.MaxRedirects < 1 {
		errs = append(errs, fmt.Errorf("cache.max_redirects must be >= 1, got %d", c.Cache.MaxRedirects))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dpotapov/go-folio/site"
)

const (
	cfgKeyAddr         = "addr"
	cfgKeyContentDir   = "content_dir"
	cfgKeyBaseURL      = "base_url"
	cfgKeyTitle        = "title"
	cfgKeySpacerHeight = "spacer_height"
	cfgKeyLogLevel     = "log_level"
	cfgKeyWatch        = "watch"
	cfgKeyLive         = "live"
	cfgKeyNav          = "nav"

	envPrefix = "FOLIO"
)

type config struct {
	Addr         string         `mapstructure:"addr"`
	ContentDir   string         `mapstructure:"content_dir"`
	BaseURL      string         `mapstructure:"base_url"`
	Title        string         `mapstructure:"title"`
	SpacerHeight string         `mapstructure:"spacer_height"`
	LogLevel     string         `mapstructure:"log_level"`
	Watch        bool           `mapstructure:"watch"`
	Live         bool           `mapstructure:"live"`
	Nav          []site.NavItem `mapstructure:"nav"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"addr":        cfgKeyAddr,
	"content-dir": cfgKeyContentDir,
	"base-url":    cfgKeyBaseURL,
	"watch":       cfgKeyWatch,
	"live":        cfgKeyLive,
	"log-level":   cfgKeyLogLevel,
}

// loadConfig merges defaults, the optional config file, FOLIO_* environment
// variables and any flags in fs that were set, in increasing priority.
func loadConfig(configFile string, fs *pflag.FlagSet) (*config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyAddr, ":8080")
	v.SetDefault(cfgKeyContentDir, "content")
	v.SetDefault(cfgKeyBaseURL, "http://localhost:8080")
	v.SetDefault(cfgKeyTitle, "Portfolio")
	v.SetDefault(cfgKeySpacerHeight, "4rem")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyWatch, false)
	v.SetDefault(cfgKeyLive, true)
	v.SetDefault(cfgKeyNav, []map[string]any{
		{"label": "Work", "path": "/"},
	})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.ContentDir == "" {
		return nil, errors.New("content_dir must not be empty")
	}

	return &cfg, nil
}

// newLogger builds the text logger used by all commands.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

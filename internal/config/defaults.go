package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultDeployDir     = "_deploy"
	DefaultLayoutDir     = "_layout"
	DefaultPostDir       = "_posts"
	DefaultHookDir       = "_hooks"
	DefaultLibDir        = "_libs"
	DefaultPostExtension = "html"
	DefaultPort          = 8000
	DefaultDebounce      = 300 * time.Millisecond
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&DirsDefaultApplier{},
			&PostsDefaultApplier{},
			&ServeDefaultApplier{},
		},
	}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// DirsDefaultApplier fills in directory names and makes them absolute against the base.
type DirsDefaultApplier struct{}

func (d *DirsDefaultApplier) Domain() string { return "dirs" }

func (d *DirsDefaultApplier) ApplyDefaults(cfg *Config) error {
	resolve := func(p *string, def string) {
		if *p == "" {
			*p = def
		}
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(cfg.BaseDir, *p)
		}
		*p = filepath.Clean(*p)
	}
	resolve(&cfg.DeployDir, DefaultDeployDir)
	resolve(&cfg.LayoutDir, DefaultLayoutDir)
	resolve(&cfg.PostDir, DefaultPostDir)
	resolve(&cfg.HookDir, DefaultHookDir)
	resolve(&cfg.LibDir, DefaultLibDir)
	if cfg.DeployDir == cfg.BaseDir {
		return fmt.Errorf("deploy directory must differ from the source directory")
	}
	return nil
}

type PostsDefaultApplier struct{}

func (p *PostsDefaultApplier) Domain() string { return "posts" }

func (p *PostsDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Posts.Extension = strings.TrimPrefix(strings.TrimSpace(cfg.Posts.Extension), ".")
	if cfg.Posts.Extension == "" {
		cfg.Posts.Extension = DefaultPostExtension
	}
	return nil
}

type ServeDefaultApplier struct{}

func (s *ServeDefaultApplier) Domain() string { return "serve" }

func (s *ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = DefaultPort
	}
	if cfg.Serve.Port < 0 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Serve.Port)
	}
	if cfg.Serve.Debounce <= 0 {
		cfg.Serve.Debounce = DefaultDebounce
	}
	if cfg.Serve.RebuildEvery < 0 {
		return fmt.Errorf("rebuild_every must not be negative")
	}
	return nil
}

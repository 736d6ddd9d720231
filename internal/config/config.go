// Package config builds the immutable configuration value for one growl site.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/growl/internal/errors"
)

const (
	// FileName is the optional site configuration file inside the base directory.
	FileName = "_config.yaml"
	// EnvFileName is loaded into the process environment before FileName is expanded.
	EnvFileName = ".env"
)

// Config describes one site. It is produced by Load and not mutated afterwards.
type Config struct {
	BaseDir   string `yaml:"-"`
	DeployDir string `yaml:"deploy_dir"`
	LayoutDir string `yaml:"layout_dir"`
	PostDir   string `yaml:"post_dir"`
	HookDir   string `yaml:"hook_dir"`
	LibDir    string `yaml:"lib_dir"`

	Posts PostsConfig `yaml:"posts"`
	Serve ServeConfig `yaml:"serve"`

	// Site params are merged into the site namespace of every rendered entity.
	Site map[string]any `yaml:"site"`
}

// PostsConfig controls post discovery and output naming.
type PostsConfig struct {
	// Extension of the generated post file (index.<Extension>).
	Extension string `yaml:"extension"`
	// Strict aborts the build on a badly named post instead of skipping it.
	Strict bool `yaml:"strict"`
}

// ServeConfig controls the development server.
type ServeConfig struct {
	Port         int           `yaml:"port"`
	Debounce     time.Duration `yaml:"debounce"`
	RebuildEvery time.Duration `yaml:"rebuild_every"`
}

// Load validates base, loads <base>/.env and <base>/_config.yaml and applies defaults.
// A non-empty deployOverride replaces the configured deploy directory; relative
// overrides resolve against the working directory.
func Load(base, deployOverride string) (*Config, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve source directory").
			Fatal().WithContext("base", base).Build()
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "source directory does not exist").
			Fatal().WithContext("base", base).Build()
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("source is not a directory").WithContext("base", base).Build()
	}

	if err := loadEnvFile(filepath.Join(abs, EnvFileName)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse site configuration").
				Fatal().WithContext("file", path).Build()
		}
	case !os.IsNotExist(err):
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read site configuration").
			Fatal().WithContext("file", path).Build()
	}

	cfg.BaseDir = abs
	if deployOverride != "" {
		if cfg.DeployDir, err = filepath.Abs(deployOverride); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve deploy directory").
				Fatal().WithContext("deploy", deployOverride).Build()
		}
	}
	if cfg.Site == nil {
		cfg.Site = map[string]any{}
	}

	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid site configuration").
			Fatal().WithContext("file", path).Build()
	}
	return cfg, nil
}

// loadEnvFile loads KEY=VALUE pairs without overriding variables already set.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
			Fatal().WithContext("file", path).Build()
	}
	return nil
}

// Rel returns path relative to the base directory, using forward slashes.
func (c *Config) Rel(path string) string {
	rel, err := filepath.Rel(c.BaseDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Within reports whether path is dir or lies below it.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Package testutil builds throwaway growl sites for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/site"
)

const (
	testDirPermissions  = 0o750
	testFilePermissions = 0o644
)

// Fixture is a site source tree in a temporary directory.
type Fixture struct {
	t    *testing.T
	Base string
}

// NewFixture creates a base directory populated with files (slash-separated
// relative path to content).
func NewFixture(t *testing.T, files map[string]string) *Fixture {
	t.Helper()
	f := &Fixture{t: t, Base: t.TempDir()}
	for rel, body := range files {
		f.Write(rel, body)
	}
	return f
}

// Write creates or replaces a file below the base directory.
func (f *Fixture) Write(rel, body string) *Fixture {
	f.t.Helper()
	p := filepath.Join(f.Base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), testDirPermissions); err != nil {
		f.t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body), testFilePermissions); err != nil {
		f.t.Fatalf("write %s: %v", p, err)
	}
	return f
}

// Executable writes a shell script below the base directory and marks it executable.
func (f *Fixture) Executable(rel, script string) string {
	f.t.Helper()
	f.Write(rel, script)
	p := filepath.Join(f.Base, filepath.FromSlash(rel))
	if err := os.Chmod(p, 0o755); err != nil {
		f.t.Fatalf("chmod %s: %v", p, err)
	}
	return p
}

// Hook writes a hook manifest into _hooks.
func (f *Fixture) Hook(file, manifest string) *Fixture {
	return f.Write("_hooks/"+file, manifest)
}

// Config loads the fixture's configuration.
func (f *Fixture) Config() *config.Config {
	f.t.Helper()
	cfg, err := config.Load(f.Base, "")
	if err != nil {
		f.t.Fatalf("load config: %v", err)
	}
	return cfg
}

// Build runs a full generate cycle.
func (f *Fixture) Build(opts ...site.Option) (*site.Site, error) {
	return site.Build(context.Background(), f.Config(), opts...)
}

// MustBuild is Build failing the test on error.
func (f *Fixture) MustBuild(opts ...site.Option) *site.Site {
	f.t.Helper()
	s, err := f.Build(opts...)
	if err != nil {
		f.t.Fatalf("build: %v", err)
	}
	return s
}

// Output returns file assertions rooted at the deploy directory.
func (f *Fixture) Output() *FileAssertions {
	return NewFileAssertions(f.t, f.Config().DeployDir)
}

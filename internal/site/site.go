// Package site drives one build of a growl site: it loads hooks, reads
// layouts and posts, renders pages and copies static files into the deploy
// directory, and optionally deploys or serves the result.
package site

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/content"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/metrics"
	"git.home.luguber.info/inful/growl/internal/render"
	"git.home.luguber.info/inful/growl/internal/tplctx"
	"git.home.luguber.info/inful/growl/internal/transform"
)

// NamespaceKey is the root Context key holding the shared site namespace.
const NamespaceKey = "site"

type (
	// StageFunc implements a wrappable lifecycle operation (prepare, run, deploy).
	StageFunc func(ctx context.Context) error
	// WriteFunc implements a wrappable per-entity write.
	WriteFunc func(e *content.Entity) error
	// SetupOptionsFunc lets hooks contribute command line flags.
	SetupOptionsFunc func(opts *Options) error
)

// Info holds the typed fields of the site namespace.
type Info struct {
	Now              time.Time
	BuildID          string
	Posts            []*content.Entity
	UnpublishedPosts []*content.Entity
	Categories       map[string][]*content.Entity
	Hooks            []string
}

// Site is a single build. Create a fresh Site for every rebuild.
type Site struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	options  *Options
	now      func() time.Time

	root       *tplctx.Context
	ns         *tplctx.Context
	transforms *transform.Registry
	engine     render.Engine
	env        *content.Env

	Layouts          map[string]*content.Entity
	Posts            []*content.Entity
	UnpublishedPosts []*content.Entity
	Categories       map[string][]*content.Entity

	allPosts []*content.Entity
	info     Info
	state    State

	setupOptions *hook.Chain[SetupOptionsFunc]
	prepare      *hook.Chain[StageFunc]
	run          *hook.Chain[StageFunc]
	deploy       *hook.Chain[StageFunc]
	writePage    *hook.Chain[WriteFunc]
	writePost    *hook.Chain[WriteFunc]
}

// Option configures a Site.
type Option func(*Site)

func WithLogger(l *slog.Logger) Option { return func(s *Site) { s.logger = l } }

func WithRecorder(r metrics.Recorder) Option { return func(s *Site) { s.recorder = r } }

// WithOptions shares flag groups between the CLI and successive builds.
func WithOptions(o *Options) Option { return func(s *Site) { s.options = o } }

func WithEngine(e render.Engine) Option { return func(s *Site) { s.engine = e } }

// WithClock overrides the build time source.
func WithClock(now func() time.Time) Option { return func(s *Site) { s.now = now } }

// New constructs a Site in the constructed state.
func New(cfg *config.Config, opts ...Option) *Site {
	s := &Site{
		cfg:        cfg,
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
		now:        time.Now,
		transforms: transform.NewRegistry(),
		Layouts:    map[string]*content.Entity{},
		Categories: map[string][]*content.Entity{},
		state:      StateConstructed,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.options == nil {
		s.options = NewOptions()
	}
	if s.engine == nil {
		s.engine = render.NewPongoEngine(cfg.LayoutDir, s.logger)
	}

	s.info = Info{Now: s.now(), BuildID: uuid.NewString(), Categories: s.Categories}
	s.root = tplctx.New(nil)
	s.ns = s.root.Namespace(NamespaceKey)
	s.ns.Merge(cfg.Site)
	s.ns.Set("now", s.info.Now)
	s.ns.Set("time", s.info.Now)
	s.ns.Set("build_id", s.info.BuildID)

	s.env = &content.Env{
		Config:     cfg,
		Layouts:    s.Layouts,
		Transforms: s.transforms,
		Engine:     s.engine,
	}

	s.setupOptions = hook.NewChain[SetupOptionsFunc](func(*Options) error { return nil })
	s.prepare = hook.NewChain[StageFunc](s.defaultPrepare)
	s.run = hook.NewChain[StageFunc](s.defaultRun)
	s.deploy = hook.NewChain[StageFunc](func(context.Context) error { return nil })
	s.writePage = hook.NewChain[WriteFunc](s.writeEntity)
	s.writePost = hook.NewChain[WriteFunc](s.writeEntity)
	return s
}

func (s *Site) Config() *config.Config { return s.cfg }

func (s *Site) Logger() *slog.Logger { return s.logger }

func (s *Site) Recorder() metrics.Recorder { return s.recorder }

func (s *Site) Options() *Options { return s.options }

// Root is the Context every entity branches from.
func (s *Site) Root() *tplctx.Context { return s.root }

// Namespace is the shared `site` namespace. Values set here are visible to every entity.
func (s *Site) Namespace() *tplctx.Context { return s.ns }

func (s *Site) Transforms() *transform.Registry { return s.transforms }

func (s *Site) Engine() render.Engine { return s.engine }

// Env is the environment entities are loaded with.
func (s *Site) Env() *content.Env { return s.env }

// Info returns a snapshot of the typed namespace fields.
func (s *Site) Info() Info { return s.info }

// CommandEnv returns the process environment for commands spawned by hooks,
// with the site's library directory prepended to PATH when it exists.
func (s *Site) CommandEnv() []string {
	env := os.Environ()
	if fi, err := os.Stat(s.cfg.LibDir); err != nil || !fi.IsDir() {
		return env
	}
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + s.cfg.LibDir + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	return append(env, "PATH="+s.cfg.LibDir)
}

// LookPath resolves a command hooks want to run, preferring an executable in
// the library directory over PATH.
func (s *Site) LookPath(name string) (string, error) {
	if !strings.ContainsRune(name, filepath.Separator) {
		candidate := filepath.Join(s.cfg.LibDir, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() && fi.Mode().Perm()&0o111 != 0 {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

// publish copies the typed fields into the namespace.
func (s *Site) publish() {
	s.ns.Set("now", s.info.Now)
	s.ns.Set("time", s.info.Now)
	s.ns.Set("build_id", s.info.BuildID)
	s.ns.Set("posts", content.Views(s.Posts))
	s.ns.Set("unpublished_posts", content.Views(s.UnpublishedPosts))
	cats := make(map[string]any, len(s.Categories))
	for name, posts := range s.Categories {
		cats[name] = content.Views(posts)
	}
	s.ns.Set("categories", cats)
	s.ns.Set("category_names", sortedKeys(s.Categories))
	s.ns.Set("hooks", s.info.Hooks)
}

func (s *Site) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	s.recorder.ObserveStageDuration(stage, d)
	if err != nil {
		s.recorder.IncStageResult(stage, metrics.ResultFatal)
		return err
	}
	s.recorder.IncStageResult(stage, metrics.ResultSuccess)
	s.logger.Debug("Stage complete", logfields.Stage(stage), logfields.DurationMS(float64(d.Microseconds())/1000))
	return nil
}

// deployPath maps an output path into the deploy directory.
func (s *Site) deployPath(rel string) string {
	return filepath.Join(s.cfg.DeployDir, rel)
}

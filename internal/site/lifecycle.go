package site

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/content"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/metrics"
)

// State is a step of the site lifecycle.
type State int

const (
	StateConstructed State = iota
	StateHooksLoaded
	StateLayoutsRead
	StateGenerated
	StateDeployed
	StateServing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateHooksLoaded:
		return "hooks-loaded"
	case StateLayoutsRead:
		return "layouts-read"
	case StateGenerated:
		return "generated"
	case StateDeployed:
		return "deployed"
	case StateServing:
		return "serving"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s *Site) State() State { return s.state }

func (s *Site) expect(op string, allowed ...State) error {
	if slices.Contains(allowed, s.state) {
		return nil
	}
	return errors.InternalError("operation not allowed in current site state").
		WithContext("operation", op).
		WithContext("state", s.state.String()).
		Build()
}

// SetupOptions lets installed hooks register their flag groups on opts.
// A nil opts uses the Site's own Options.
func (s *Site) SetupOptions(opts *Options) error {
	if err := s.expect("setup-options", StateHooksLoaded); err != nil {
		return err
	}
	if opts == nil {
		opts = s.options
	}
	return s.setupOptions.Func()(opts)
}

// Prepare reads layouts and posts and aggregates categories.
func (s *Site) Prepare(ctx context.Context) error {
	if err := s.expect("prepare", StateHooksLoaded); err != nil {
		return err
	}
	if err := s.timed("prepare", func() error { return s.prepare.Func()(ctx) }); err != nil {
		return err
	}
	s.state = StateLayoutsRead
	return nil
}

// Run generates the deploy tree: posts first, then the site content.
func (s *Site) Run(ctx context.Context) error {
	if err := s.expect("run", StateLayoutsRead); err != nil {
		return err
	}
	if err := s.timed("run", func() error { return s.run.Func()(ctx) }); err != nil {
		return err
	}
	s.state = StateGenerated
	return nil
}

// Deploy runs the deploy chain. Without hooks it does nothing.
func (s *Site) Deploy(ctx context.Context) error {
	if err := s.expect("deploy", StateGenerated); err != nil {
		return err
	}
	if err := s.timed("deploy", func() error { return s.deploy.Func()(ctx) }); err != nil {
		return err
	}
	s.state = StateDeployed
	return nil
}

// Serve hands the generated site to serve and blocks until it returns.
func (s *Site) Serve(ctx context.Context, serve func(ctx context.Context) error) error {
	if err := s.expect("serve", StateGenerated, StateDeployed); err != nil {
		return err
	}
	s.state = StateServing
	err := serve(ctx)
	s.state = StateDone
	return err
}

// Close marks the Site as finished.
func (s *Site) Close() {
	s.state = StateDone
}

// WritePage renders a page through the WritePage chain.
func (s *Site) WritePage(e *content.Entity) error {
	return s.writePage.Func()(e)
}

// WritePost renders a post through the WritePost chain.
func (s *Site) WritePost(e *content.Entity) error {
	return s.writePost.Func()(e)
}

// Generate runs Prepare and Run, recording the build outcome.
func (s *Site) Generate(ctx context.Context) error {
	start := time.Now()
	err := s.Prepare(ctx)
	if err == nil {
		err = s.Run(ctx)
	}
	s.recorder.ObserveBuildDuration(time.Since(start))
	if err != nil {
		s.recorder.IncBuildOutcome(metrics.ResultFatal)
		return err
	}
	s.recorder.IncBuildOutcome(metrics.ResultSuccess)
	s.logger.Info("Site generated",
		logfields.Path(s.cfg.DeployDir),
		logfields.Count(len(s.allPosts)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

// Build runs one full generate cycle on a fresh Site: hooks, options, prepare, run.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Site, error) {
	s := New(cfg, opts...)
	if err := s.LoadHooks(); err != nil {
		s.recorder.IncBuildOutcome(metrics.ResultFatal)
		return s, err
	}
	if err := s.SetupOptions(nil); err != nil {
		s.recorder.IncBuildOutcome(metrics.ResultFatal)
		return s, err
	}
	return s, s.Generate(ctx)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

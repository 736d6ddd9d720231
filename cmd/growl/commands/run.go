package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/metrics"
	"git.home.luguber.info/inful/growl/internal/server"
	"git.home.luguber.info/inful/growl/internal/site"
)

type app struct {
	cfg      *config.Config
	site     *site.Site
	options  *site.Options
	recorder metrics.Recorder
	registry *prom.Registry
	logger   *slog.Logger
}

func (a *app) siteOptions() []site.Option {
	return []site.Option{
		site.WithOptions(a.options),
		site.WithRecorder(a.recorder),
		site.WithLogger(a.logger),
	}
}

func (a *app) run(ctx context.Context, cli *CLI) error {
	defer a.site.Close()

	if err := a.site.Generate(ctx); err != nil {
		return err
	}
	if cli.Deploy {
		if err := a.site.Deploy(ctx); err != nil {
			return err
		}
	}
	if !cli.Serve {
		return nil
	}

	port := cli.Port
	if port == 0 {
		port = a.cfg.Serve.Port
	}
	every := cli.RebuildEvery
	if every == 0 {
		every = a.cfg.Serve.RebuildEvery
	}
	srv := server.New(a.cfg, a.rebuild(), server.Options{
		Port:         port,
		Watch:        cli.Watch,
		RebuildEvery: every,
		Registry:     a.registry,
	}, a.logger)
	return a.site.Serve(ctx, srv.Run)
}

// rebuild generates into the same deploy directory with a fresh Site and a
// freshly loaded configuration. Flag values parsed once stay in effect.
func (a *app) rebuild() server.Rebuilder {
	return func(ctx context.Context) error {
		cfg, err := config.Load(a.cfg.BaseDir, a.cfg.DeployDir)
		if err != nil {
			return err
		}
		_, err = site.Build(ctx, cfg, a.siteOptions()...)
		return err
	}
}

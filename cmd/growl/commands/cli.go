// Package commands implements the growl command line.
package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/metrics"
	"git.home.luguber.info/inful/growl/internal/site"
	"git.home.luguber.info/inful/growl/internal/version"
)

// CLI is the growl command line. Hooks add their own flag groups to it.
type CLI struct {
	Source    string `arg:"" optional:"" help:"Site source directory."`
	DeployDir string `arg:"" optional:"" name:"deploy-dir" help:"Output directory (default: deploy_dir from _config.yaml, else <source>/_deploy)."`

	Serve        bool             `help:"Serve the deploy directory after generating."`
	Port         int              `help:"Port for --serve (default: serve.port from _config.yaml, else 8000)."`
	Watch        bool             `help:"With --serve, rebuild when source files change."`
	RebuildEvery time.Duration    `name:"rebuild-every" help:"With --serve, rebuild periodically (e.g. 10m). 0 disables."`
	Deploy       bool             `help:"Run the deploy hooks after generating."`
	Verbose      bool             `short:"v" help:"Enable verbose logging"`
	Version      kong.VersionFlag `name:"version" help:"Show version and exit"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	setupLogging(c.Verbose)
	return nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Execute runs growl with args (without the program name). Extra kong
// options are applied last, which lets tests capture output and exits.
func Execute(ctx context.Context, args []string, extra ...kong.Option) error {
	inv := Peek(args)
	setupLogging(inv.Verbose)

	registry := prom.NewRegistry()
	app := &app{
		options:  site.NewOptions(),
		recorder: metrics.NewPrometheusRecorder(registry),
		registry: registry,
		logger:   slog.Default(),
	}

	// Hooks must be installed before parsing so their flags are known.
	if inv.Source != "" {
		cfg, err := config.Load(inv.Source, inv.Deploy)
		if err != nil {
			return err
		}
		app.cfg = cfg
		app.site = site.New(cfg, app.siteOptions()...)
		if err := app.site.LoadHooks(); err != nil {
			return err
		}
		if err := app.site.SetupOptions(app.options); err != nil {
			return err
		}
	}

	var cli CLI
	opts := []kong.Option{
		kong.Name("growl"),
		kong.Description("Generate a static site from layouts, posts and pages."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	}
	for _, group := range app.options.Groups() {
		opts = append(opts, kong.Embed(group))
	}
	opts = append(opts, extra...)

	parser, err := kong.New(&cli, opts...)
	if err != nil {
		return errors.InternalError("cannot build command line").WithCause(err).Build()
	}
	if _, err := parser.Parse(args); err != nil {
		return errors.ConfigError("invalid command line").WithCause(err).Build()
	}
	if cli.Source == "" || app.site == nil {
		return errors.ConfigError("missing source directory").Build()
	}
	return app.run(ctx, &cli)
}

// Package deployrsync deploys the generated site with rsync.
//
// Manifest options:
//
//	remote: user@host:/srv/www   # default destination, overridable with --rsync-remote
//	command: rsync                # resolved in the library directory first
//	args: [-ahz, --delete]
package deployrsync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/site"
)

const Name = "deploy_rsync"

var DefaultArgs = []string{"-ahz", "--delete"}

// Flags is embedded into the command line.
type Flags struct {
	RsyncRemote string `name:"rsync-remote" help:"Destination for --deploy (rsync syntax)." placeholder:"HOST:PATH"`
}

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, m hook.Manifest) error {
	d := &deployer{
		site:    s,
		remote:  m.String("remote", ""),
		command: m.String("command", "rsync"),
		args:    m.Strings("args", DefaultArgs),
	}
	s.WrapSetupOptions(func(next site.SetupOptionsFunc) site.SetupOptionsFunc {
		return func(opts *site.Options) error {
			if err := next(opts); err != nil {
				return err
			}
			d.flags = site.FlagGroup(opts, Name, Flags{})
			return nil
		}
	})
	s.WrapDeploy(func(next site.StageFunc) site.StageFunc {
		return func(ctx context.Context) error {
			if err := next(ctx); err != nil {
				return err
			}
			return d.deploy(ctx)
		}
	})
	return nil
}

type deployer struct {
	site    *site.Site
	flags   *Flags
	remote  string
	command string
	args    []string
}

func (d *deployer) destination() string {
	if d.flags != nil && d.flags.RsyncRemote != "" {
		return d.flags.RsyncRemote
	}
	return d.remote
}

func (d *deployer) deploy(ctx context.Context) error {
	remote := d.destination()
	if remote == "" {
		return errors.HookError("no rsync destination configured").
			WithContext("hook", Name).
			WithContext("hint", "set options.remote or pass --rsync-remote").
			Build()
	}
	bin, err := d.site.LookPath(d.command)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHook, "rsync not found").
			Fatal().WithContext("command", d.command).Build()
	}

	src := filepath.Clean(d.site.Config().DeployDir) + string(filepath.Separator)
	args := append(append([]string{}, d.args...), src, remote)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = d.site.CommandEnv()
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	logger := d.site.Logger()
	logger.Info("Deploying", logfields.Hook(Name), logfields.URL(remote))
	if err := cmd.Run(); err != nil {
		return errors.WrapError(err, errors.CategoryHook, "rsync failed").
			Fatal().WithContext("remote", remote).Build()
	}
	logger.Info("Deploy finished", logfields.Hook(Name), logfields.URL(remote))
	return nil
}

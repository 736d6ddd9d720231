package site

import (
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
)

// InstallFunc installs a hook into a live Site. It typically registers
// wrappers, transforms, template filters or namespace values.
type InstallFunc func(s *Site, m hook.Manifest) error

var installers = hook.NewRegistry[InstallFunc]()

// RegisterHook makes a hook available to manifests under name. It is meant to
// be called from init and panics on duplicate names.
func RegisterHook(name string, install InstallFunc) {
	if err := installers.Register(name, install); err != nil {
		panic(err)
	}
}

// RegisteredHooks lists the names manifests may refer to.
func RegisteredHooks() []string {
	return installers.Names()
}

// LoadHooks installs every enabled manifest of the hook directory in file name
// order. Unknown hooks and install failures abort loading.
func (s *Site) LoadHooks() error {
	if err := s.expect("load-hooks", StateConstructed); err != nil {
		return err
	}
	manifests, err := hook.Discover(s.cfg.HookDir)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		if !m.IsEnabled() {
			s.logger.Debug("Hook disabled", logfields.Hook(m.Name), logfields.File(m.File))
			continue
		}
		install, ok := installers.Lookup(m.Name)
		if !ok {
			return errors.HookError("unknown hook").
				WithContext("hook", m.Name).
				WithContext("file", m.File).
				WithContext("available", RegisteredHooks()).
				Build()
		}
		if err := install(s, m); err != nil {
			return errors.WrapError(err, errors.CategoryHook, "hook installation failed").
				Fatal().WithContext("hook", m.Name).WithContext("file", m.File).Build()
		}
		s.info.Hooks = append(s.info.Hooks, m.Name)
		s.logger.Debug("Hook installed", logfields.Hook(m.Name))
	}
	s.ns.Set("hooks", s.info.Hooks)
	s.state = StateHooksLoaded
	return nil
}

func (s *Site) WrapSetupOptions(w hook.Wrapper[SetupOptionsFunc]) { s.setupOptions.Wrap(w) }

func (s *Site) WrapPrepare(w hook.Wrapper[StageFunc]) { s.prepare.Wrap(w) }

func (s *Site) WrapRun(w hook.Wrapper[StageFunc]) { s.run.Wrap(w) }

func (s *Site) WrapDeploy(w hook.Wrapper[StageFunc]) { s.deploy.Wrap(w) }

func (s *Site) WrapWritePage(w hook.Wrapper[WriteFunc]) { s.writePage.Wrap(w) }

func (s *Site) WrapWritePost(w hook.Wrapper[WriteFunc]) { s.writePost.Wrap(w) }

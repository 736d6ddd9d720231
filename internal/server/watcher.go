package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/logfields"
)

// watcher watches the base directory recursively, excluding the deploy
// directory, and fires a debounced callback on changes.
type watcher struct {
	cfg     *config.Config
	fs      *fsnotify.Watcher
	trigger func()
	stop    func()
	logger  *slog.Logger
}

func newWatcher(cfg *config.Config, debounce time.Duration, logger *slog.Logger, fire func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryServe, "cannot create file watcher").Fatal().Build()
	}
	w := &watcher{cfg: cfg, fs: fw, logger: logger}
	w.trigger, w.stop = debouncer(debounce, fire)
	if err := w.addRecursive(cfg.BaseDir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addRecursive(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *watcher) close() {
	w.stop()
	_ = w.fs.Close()
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports whether a change at path must not trigger a rebuild: the
// deploy directory, hidden entries and editor scratch files.
func (w *watcher) ignored(path string) bool {
	if config.Within(w.cfg.DeployDir, path) {
		return true
	}
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"):
		return true
	}
	return false
}

// debouncer returns a trigger that calls fire once d has passed without
// further triggers, and a stop func that cancels a pending call.
func debouncer(d time.Duration, fire func()) (trigger, stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	stopped := false
	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fire)
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

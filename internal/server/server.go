// Package server is the growl development server: it serves the deploy
// directory over HTTP and rebuilds the site on file changes or on a schedule.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/metrics"
	smw "git.home.luguber.info/inful/growl/internal/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Rebuilder regenerates the site into the deploy directory.
type Rebuilder func(ctx context.Context) error

// Options controls what Run starts besides the HTTP listener.
type Options struct {
	// Port 0 binds an ephemeral port.
	Port         int
	Watch        bool
	RebuildEvery time.Duration
	// Registry is exposed on /metrics when set.
	Registry *prom.Registry
}

// Server serves a generated site and owns the rebuild loop.
type Server struct {
	cfg     *config.Config
	opts    Options
	rebuild Rebuilder
	logger  *slog.Logger

	buildMu sync.Mutex
	status  buildStatus

	mu   sync.Mutex
	addr net.Addr
}

// New wires a Server. A nil logger uses slog.Default.
func New(cfg *config.Config, rebuild Rebuilder, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, opts: opts, rebuild: rebuild, logger: logger}
}

// Handler serves the deploy directory, plus /metrics when a registry is configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.DeployDir)))
	return smw.Chain(s.logger)(mux)
}

// Addr is the bound listener address once Run is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Rebuild runs the Rebuilder. Concurrent calls are serialized.
func (s *Server) Rebuild(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	s.logger.Info("Rebuilding site", logfields.Path(s.cfg.BaseDir))
	if err := s.rebuild(ctx); err != nil {
		s.status.setError(err)
		s.logger.Warn("Rebuild failed", logfields.Error(err))
		return err
	}
	s.status.setSuccess()
	s.logger.Info("Rebuild complete", logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

// LastError returns the error of the most recent rebuild, if it failed.
func (s *Server) LastError() error {
	_, err, _ := s.status.get()
	return err
}

// Run listens on the configured port and blocks until ctx is canceled, then
// shuts everything down gracefully.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return errors.WrapError(err, errors.CategoryServe, "cannot listen").
			Fatal().WithContext("port", s.opts.Port).Build()
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.logger.Info("Serving site",
		logfields.Path(s.cfg.DeployDir),
		logfields.URL(fmt.Sprintf("http://localhost:%d/", ln.Addr().(*net.TCPAddr).Port)))

	if s.opts.Watch {
		w, err := newWatcher(s.cfg, s.cfg.Serve.Debounce, s.logger, func() { _ = s.Rebuild(ctx) })
		if err != nil {
			_ = srv.Close()
			return err
		}
		go w.run(ctx)
		defer w.close()
	}
	if s.opts.RebuildEvery > 0 {
		sched, err := newScheduler(s.opts.RebuildEvery, s.logger, func() { _ = s.Rebuild(ctx) })
		if err != nil {
			_ = srv.Close()
			return err
		}
		sched.start()
		defer sched.stop()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = errors.WrapError(err, errors.CategoryServe, "http server failed").Fatal().Build()
		}
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return runErr
}

// buildStatus tracks the outcome of the latest rebuild.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (hasError bool, err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError != nil, bs.lastError, bs.hasGoodBuild
}

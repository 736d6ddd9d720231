package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/metrics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg, err := config.Load(base, "")
	require.NoError(t, err)
	cfg.Serve.Debounce = 50 * time.Millisecond
	require.NoError(t, os.MkdirAll(cfg.DeployDir, 0o755))
	return cfg
}

func TestHandler_ServesDeployDirAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DeployDir, "index.html"), []byte("<p>hi</p>"), 0o644))

	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg).IncFilesCopied()
	s := New(cfg, func(context.Context) error { return nil }, Options{Registry: reg}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>hi</p>", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "growl_files_copied_total 1")
}

func TestHandler_NoMetricsWithoutRegistry(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, func(context.Context) error { return nil }, Options{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRebuild_SerializesAndRecordsStatus(t *testing.T) {
	cfg := testConfig(t)
	var active, maxActive int32
	fail := atomic.Bool{}
	s := New(cfg, func(context.Context) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		if fail.Load() {
			return fmt.Errorf("broken template")
		}
		return nil
	}, Options{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Rebuild(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
	assert.NoError(t, s.LastError())

	fail.Store(true)
	require.Error(t, s.Rebuild(context.Background()))
	assert.EqualError(t, s.LastError(), "broken template")
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	var fired int32
	trigger, stop := debouncer(30*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	defer stop()

	for i := 0; i < 10; i++ {
		trigger()
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var fired int32
	trigger, stop := debouncer(20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	trigger()
	stop()
	trigger()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestWatcher_IgnoresDeployDirAndScratchFiles(t *testing.T) {
	cfg := testConfig(t)
	w := &watcher{cfg: cfg}

	assert.True(t, w.ignored(filepath.Join(cfg.DeployDir, "index.html")))
	assert.True(t, w.ignored(filepath.Join(cfg.BaseDir, ".git")))
	assert.True(t, w.ignored(filepath.Join(cfg.BaseDir, "post.md.swp")))
	assert.True(t, w.ignored(filepath.Join(cfg.BaseDir, "index.html~")))
	assert.True(t, w.ignored(filepath.Join(cfg.BaseDir, "#index.html#")))
	assert.False(t, w.ignored(filepath.Join(cfg.BaseDir, "_layout", "default.html")))
	assert.False(t, w.ignored(filepath.Join(cfg.BaseDir, "index.html_")))
}

func TestRun_ServesWatchesAndShutsDown(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DeployDir, "index.html"), []byte("served"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.BaseDir, "_posts"), 0o755))

	var rebuilds int32
	s := New(cfg, func(context.Context) error {
		atomic.AddInt32(&rebuilds, 1)
		return nil
	}, Options{Port: 0, Watch: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + s.Addr().String() + "/index.html")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "served", string(body))

	// Give the watcher a moment to register its directories.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BaseDir, "_posts", "2022-01-01-hi.md"), []byte("x"), 0o644))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&rebuilds) >= 1 }, 3*time.Second, 20*time.Millisecond)

	before := atomic.LoadInt32(&rebuilds)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DeployDir, "other.html"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt32(&rebuilds))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_PeriodicRebuild(t *testing.T) {
	cfg := testConfig(t)
	var rebuilds int32
	s := New(cfg, func(context.Context) error {
		atomic.AddInt32(&rebuilds, 1)
		return nil
	}, Options{Port: 0, RebuildEvery: 50 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&rebuilds) >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRun_ListenFailureIsServeError(t *testing.T) {
	cfg := testConfig(t)
	first := New(cfg, func(context.Context) error { return nil }, Options{Port: 0}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	require.Eventually(t, func() bool { return first.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	port := first.Addr().(*net.TCPAddr).Port
	second := New(cfg, func(context.Context) error { return nil }, Options{Port: port}, nil)
	err := second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[serve]")

	cancel()
	<-done
}

package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/growl/internal/errors"
	_ "git.home.luguber.info/inful/growl/internal/hooks/deployrsync"
	_ "git.home.luguber.info/inful/growl/internal/hooks/markdown"
	"git.home.luguber.info/inful/growl/internal/testutil"
	"git.home.luguber.info/inful/growl/internal/version"
)

func TestExecute_GeneratesSite(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{
		"_hooks/markdown.yaml":    "hook: markdown\n",
		"_layout/default.html":    "<html>{{ content }}</html>",
		"_posts/2022-01-01-hi.md": "---\nlayout: default\n---\nHello",
	})

	require.NoError(t, Execute(context.Background(), []string{f.Base}))
	f.Output().AssertFileContains("2022/01/01/hi/index.html", "<html><p>Hello</p>")
}

func TestExecute_DeployDirPositional(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{"index.html_": "{{ site.build_id|length }}"})
	out := filepath.Join(t.TempDir(), "public")

	require.NoError(t, Execute(context.Background(), []string{f.Base, out}))
	b, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "36", string(b))
}

func TestExecute_ConfigErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"missing source": {},
		"no such source": {filepath.Join(t.TempDir(), "nope")},
	} {
		err := Execute(context.Background(), args)
		require.Error(t, err, name)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig), name)
		assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err), name)
	}
}

func TestExecute_UnknownFlag(t *testing.T) {
	f := testutil.NewFixture(t, nil)
	err := Execute(context.Background(), []string{"--bogus", f.Base}, kong.Writers(io.Discard, io.Discard))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestExecute_BuildErrorExitCode(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{
		"_layout/a.html": "---\nlayout: a\n---\n{{ content }}",
	})
	err := Execute(context.Background(), []string{f.Base})
	require.Error(t, err)
	assert.Equal(t, 11, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestExecute_HookFlagsAndDeploy(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args")
	t.Setenv("GROWL_TEST_RSYNC_OUT", out)
	f := testutil.NewFixture(t, map[string]string{
		"_hooks/deploy.yaml": "hook: deploy_rsync\noptions:\n  remote: default:/x\n",
	})
	f.Executable("_libs/rsync", "#!/bin/sh\necho \"$@\" > \"$GROWL_TEST_RSYNC_OUT\"\n")

	require.NoError(t, Execute(context.Background(), []string{"--deploy", "--rsync-remote=cli:/y", f.Base}))
	args, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(args)), "cli:/y"))
}

func TestExecute_HookFlagUnknownWithoutManifest(t *testing.T) {
	f := testutil.NewFixture(t, nil)
	err := Execute(context.Background(), []string{"--rsync-remote=cli:/y", f.Base}, kong.Writers(io.Discard, io.Discard))
	require.Error(t, err)
}

func TestExecute_Version(t *testing.T) {
	var buf bytes.Buffer
	exited := -1
	_ = Execute(context.Background(), []string{"--version"},
		kong.Writers(&buf, &buf),
		kong.Exit(func(code int) { exited = code }),
	)
	assert.Equal(t, 0, exited)
	assert.Contains(t, buf.String(), version.String())
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestExecute_Serve(t *testing.T) {
	f := testutil.NewFixture(t, map[string]string{"index.html_": "served {{ site.hooks|length }}"})
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Execute(ctx, []string{"--serve", "--port", fmt.Sprint(port), f.Base}) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/index.html", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "served 0", body)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(b), `growl_build_outcomes_total{outcome="success"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

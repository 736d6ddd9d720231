package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("prepare", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("prepare", ResultSuccess)
	pr.IncBuildOutcome(ResultSuccess)
	pr.IncEntitiesWritten("post")
	pr.IncEntitiesWritten("post")
	pr.IncFilesCopied()
	pr.IncPostsSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.entitiesWritten.WithLabelValues("post")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.filesCopied), 0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncFilesCopied()
	pr.ObserveBuildDuration(time.Second)
	pr.IncBuildOutcome(ResultFatal)
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncEntitiesWritten("page")
	r.IncStageResult("run", ResultFatal)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFilesCopied()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "growl_files_copied_total 1")
}

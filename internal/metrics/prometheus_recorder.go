package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "growl"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	entitiesWritten *prom.CounterVec
	filesCopied     prom.Counter
	postsSkipped    prom.Counter
}

// NewPrometheusRecorder constructs and registers the build metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of site lifecycle stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		entitiesWritten: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "entities_written_total",
			Help:      "Rendered pages and posts written to the deploy directory",
		}, []string{"kind"}),
		filesCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Opaque files copied verbatim to the deploy directory",
		}),
		postsSkipped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "posts_skipped_total",
			Help:      "Posts skipped because of an invalid file name",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.entitiesWritten, pr.filesCopied, pr.postsSkipped)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome ResultLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncEntitiesWritten(kind string) {
	if p == nil {
		return
	}
	p.entitiesWritten.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncFilesCopied() {
	if p == nil {
		return
	}
	p.filesCopied.Inc()
}

func (p *PrometheusRecorder) IncPostsSkipped() {
	if p == nil {
		return
	}
	p.postsSkipped.Inc()
}

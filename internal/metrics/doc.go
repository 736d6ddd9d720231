// Package metrics records build metrics for growl.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// nil checks. The development server swaps in a PrometheusRecorder and exposes
// it on /metrics:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics

// Package metrics records run outcomes in a Prometheus registry and exports
// them for the node_exporter textfile collector, since a one-shot process has
// no long-lived endpoint to scrape.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	Runs            *prometheus.CounterVec
	StageErrors     *prometheus.CounterVec
	DownloadRetries prometheus.Counter
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytthumb_runs_total",
			Help: "Runs by final status",
		}, []string{"status"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytthumb_stage_errors_total",
			Help: "Failed runs by failing stage",
		}, []string{"stage"}),
		DownloadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytthumb_download_retries_total",
			Help: "Photo download retry attempts",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytthumb_run_duration_seconds",
			Help:    "Run duration seconds",
			Buckets: prometheus.DefBuckets,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ytthumb_last_upload_timestamp_seconds",
			Help: "Unix time of the last successful thumbnail upload",
		}),
	}
	r.registry.MustRegister(r.Runs, r.StageErrors, r.DownloadRetries, r.RunDuration, r.LastSuccess)
	return r
}

// ObserveRun records one finished run. stage is empty unless the run failed.
func (r *Recorder) ObserveRun(status, stage string, started, finished time.Time) {
	r.Runs.WithLabelValues(status).Inc()
	if stage != "" {
		r.StageErrors.WithLabelValues(stage).Inc()
	}
	r.RunDuration.Observe(finished.Sub(started).Seconds())
	if status == "uploaded" {
		r.LastSuccess.Set(float64(finished.Unix()))
	}
}

// IncDownloadRetry counts one download retry.
func (r *Recorder) IncDownloadRetry() { r.DownloadRetries.Inc() }

// WriteTextfile writes the registry in text exposition format to path. The
// write goes through a temp file and rename, so collectors never read a
// partial file. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

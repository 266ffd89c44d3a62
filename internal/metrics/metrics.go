// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package metrics records run statistics and dumps them in the Prometheus
// text format for a node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	fetchAttempts     prometheus.Counter
	fetchFailures     prometheus.Counter
	snapshotFallbacks prometheus.Counter
	stageDuration     *prometheus.GaugeVec
	observations      *prometheus.GaugeVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		fetchAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "svar_fetch_attempts_total",
			Help: "Live acquisition attempts",
		}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "svar_fetch_failures_total",
			Help: "Live acquisition attempts that failed",
		}),
		snapshotFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "svar_snapshot_fallbacks_total",
			Help: "Runs that continued from the persisted snapshot",
		}),
		stageDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svar_stage_duration_seconds",
			Help: "Wall time of the last run of each pipeline stage",
		}, []string{"stage"}),
		observations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "svar_observations",
			Help: "Observations per series after acquisition",
		}, []string{"series"}),
	}
}

func (r *Recorder) RecordFetchAttempt() { r.fetchAttempts.Inc() }

func (r *Recorder) RecordFetchFailure() { r.fetchFailures.Inc() }

func (r *Recorder) RecordSnapshotFallback() { r.snapshotFallbacks.Inc() }

func (r *Recorder) RecordStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (r *Recorder) RecordObservations(series string, n int) {
	r.observations.WithLabelValues(series).Set(float64(n))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// WriteTextfile dumps every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

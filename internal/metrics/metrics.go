// Package metrics holds the Prometheus collectors for solve runs. The
// kernel itself carries no instrumentation; the solver's stage hooks and
// the service layer report here.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qini_solves_total",
		Help: "Solve runs by outcome.",
	}, []string{"status"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qini_solve_duration_seconds",
		Help:    "End-to-end solve wall time.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qini_solve_stage_duration_seconds",
		Help:    "Per-stage solve wall time.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"stage"})

	pathSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qini_path_steps",
		Help:    "Allocation steps per solution path.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)

// ObserveSolve records one solve run. steps is ignored unless ok.
func ObserveSolve(ok bool, d time.Duration, steps int) {
	if !ok {
		solvesTotal.WithLabelValues("error").Inc()
		return
	}
	solvesTotal.WithLabelValues("ok").Inc()
	solveDuration.Observe(d.Seconds())
	pathSteps.Observe(float64(steps))
}

// ObserveStage records one pipeline stage; wired as a solver hook.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

package app

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gomix/internal/errors"
)

var (
	// attributionRunsTotal counts attribution calls by operation and outcome code
	attributionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomix_attribution_runs_total",
		Help: "Attribution runs by operation and result",
	}, []string{"operation", "result"})

	// attributionDuration tracks attribution latency
	attributionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gomix_attribution_duration_seconds",
		Help:    "Attribution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"operation"})

	// attributionRowsUsed tracks how many rows each fit used
	attributionRowsUsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gomix_attribution_rows_used",
		Help:    "Rows used per attribution fit",
		Buckets: []float64{10, 26, 52, 104, 260, 520, 1040},
	})

	// experimentCalcTotal counts experiment design calculations
	experimentCalcTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomix_experiment_calculations_total",
		Help: "Experiment design calculations by kind and result",
	}, []string{"kind", "result"})
)

func observeAttribution(operation string, start time.Time, err error) {
	attributionRunsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
	attributionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(errors.GetCode(err))
}

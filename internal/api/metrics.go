package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// computationsTotal counts analytics computations served by the API.
	// Labels: kind (curve, ead, equity, benefit), status (ok, error, blocked)
	computationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floodrisk",
		Subsystem: "api",
		Name:      "computations_total",
		Help:      "Total analytics computations by kind and outcome",
	}, []string{"kind", "status"})

	// computationDuration measures wall time per computation kind.
	computationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "floodrisk",
		Subsystem: "api",
		Name:      "computation_seconds",
		Help:      "Analytics computation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	}, []string{"kind"})

	// scenariosMaterialized counts scenarios created through requirement
	// resolution.
	scenariosMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "floodrisk",
		Subsystem: "api",
		Name:      "scenarios_materialized_total",
		Help:      "Total scenarios created by requirement resolution",
	})
)

func observeComputation(kind, status string, start time.Time) {
	computationsTotal.WithLabelValues(kind, status).Inc()
	computationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

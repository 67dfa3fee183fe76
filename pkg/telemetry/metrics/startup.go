package metrics

import "github.com/prometheus/client_golang/prometheus"

// StartupMetrics tracks the startup pipeline.
type StartupMetrics struct {
	stageDuration *prometheus.HistogramVec
	failures      *prometheus.CounterVec
}

// NewStartupMetrics creates and registers startup metrics with the provided registry.
func NewStartupMetrics(registry *prometheus.Registry) *StartupMetrics {
	sm := &StartupMetrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "startup_stage_duration_seconds",
				Help:      "Time spent in each startup stage",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"stage"},
		),

		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "startup_failures_total",
				Help:      "Startup attempts aborted, by failing stage",
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(sm.stageDuration, sm.failures)
	return sm
}

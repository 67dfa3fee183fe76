package metrics

import "github.com/prometheus/client_golang/prometheus"

// HTTPMetrics tracks requests served over the TLS listener.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewHTTPMetrics creates and registers request metrics with the provided registry.
func NewHTTPMetrics(registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTPS requests served",
			},
			[]string{"method", "code"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTPS requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(hm.requests, hm.duration)
	return hm
}

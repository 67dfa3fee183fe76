package metrics

import "github.com/prometheus/client_golang/prometheus"

// CertificateMetrics exposes the served certificate's validity.
type CertificateMetrics struct {
	expiry prometheus.Gauge
}

// NewCertificateMetrics creates and registers certificate metrics with the provided registry.
func NewCertificateMetrics(registry *prometheus.Registry) *CertificateMetrics {
	cm := &CertificateMetrics{
		expiry: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "certificate_expiry_timestamp_seconds",
			Help:      "NotAfter of the served leaf certificate as a Unix timestamp",
		}),
	}

	registry.MustRegister(cm.expiry)
	return cm
}

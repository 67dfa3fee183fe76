package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every keyport metric.
const Namespace = "keyport"

// maxHTTPLabelSets caps distinct method/code pairs.
const maxHTTPLabelSets = 200

// Collector owns the keyport metrics and the registry they live in.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	startup     *StartupMetrics
	http        *HTTPMetrics
	certificate *CertificateMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector. When registry is nil a fresh registry is
// created with the Go runtime and process collectors registered.
func NewCollector(enabled bool, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Collector{
		enabled:            enabled,
		registry:           registry,
		startup:            NewStartupMetrics(registry),
		http:               NewHTTPMetrics(registry),
		certificate:        NewCertificateMetrics(registry),
		cardinalityLimiter: NewCardinalityLimiter(maxHTTPLabelSets),
	}
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// ObserveStage records how long a startup stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if !c.Enabled() {
		return
	}
	c.startup.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStartupFailure counts a startup aborted at stage.
func (c *Collector) RecordStartupFailure(stage string) {
	if !c.Enabled() {
		return
	}
	c.startup.failures.WithLabelValues(stage).Inc()
}

// RecordHTTPRequest records a served request.
func (c *Collector) RecordHTTPRequest(method string, code int, d time.Duration) {
	if !c.Enabled() {
		return
	}

	method = normalizeMethod(method)
	status := strconv.Itoa(code)
	if !c.cardinalityLimiter.Allow(method + ":" + status) {
		method, status = "other", "other"
	}

	c.http.requests.WithLabelValues(method, status).Inc()
	c.http.duration.Observe(d.Seconds())
}

// SetCertificateExpiry publishes the NotAfter time of the served certificate.
func (c *Collector) SetCertificateExpiry(notAfter time.Time) {
	if !c.Enabled() {
		return
	}
	c.certificate.expiry.Set(float64(notAfter.Unix()))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func normalizeMethod(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return m
	default:
		return "other"
	}
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}

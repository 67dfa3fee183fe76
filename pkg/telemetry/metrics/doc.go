// Package metrics provides Prometheus metrics for keyport.
//
// # Metrics
//
//   - keyport_startup_stage_duration_seconds{stage}: time spent in each startup stage
//   - keyport_startup_failures_total{stage}: startup failures by failing stage
//   - keyport_http_requests_total{method,code}: HTTPS requests served
//   - keyport_http_request_duration_seconds: HTTPS request latency
//   - keyport_certificate_expiry_timestamp_seconds: NotAfter of the served leaf certificate
//
// # Usage
//
//	collector := metrics.NewCollector(true, nil)
//	collector.ObserveStage("keystore-decode", 12*time.Millisecond)
//	mux.Handle("/metrics", collector.Handler())
//
// A disabled collector accepts every call and records nothing.
//
// # Cardinality Management
//
// HTTP methods outside the standard set are folded into "other", and at most
// a fixed number of method/code combinations are tracked.
package metrics

package config

import "time"

// Default values for optional settings.
const (
	// Server defaults
	DefaultAddress           = "127.0.0.1"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
	DefaultHealthPath     = "/health"

	// Certificate expiry defaults
	DefaultExpirySchedule = "@daily"
	DefaultExpiryWarnDays = 30

	// Tracing defaults
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "keyport"
)

// DefaultSettings returns Settings populated with every default value.
func DefaultSettings() Settings {
	s := Settings{
		Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		Tracing: TracingConfig{SampleRatio: DefaultTracingSampleRatio},
	}
	ApplyDefaults(&s)
	return s
}

// ApplyDefaults fills zero-valued fields of s with their defaults. Boolean
// fields cannot be told apart from an explicit false, so MetricsConfig.Enabled
// is left to ParseSettings. A zero SampleRatio is kept: it is a valid ratio.
func ApplyDefaults(s *Settings) {
	if s.Server.Address == "" {
		s.Server.Address = DefaultAddress
	}
	if s.Server.ReadHeaderTimeout == 0 {
		s.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if s.Logging.Level == "" {
		s.Logging.Level = DefaultLoggingLevel
	}
	if s.Logging.Format == "" {
		s.Logging.Format = DefaultLoggingFormat
	}

	if s.Metrics.Path == "" {
		s.Metrics.Path = DefaultMetricsPath
	}
	if s.Health.Path == "" {
		s.Health.Path = DefaultHealthPath
	}

	if s.Expiry.Schedule == "" {
		s.Expiry.Schedule = DefaultExpirySchedule
	}
	if s.Expiry.WarnDays == 0 {
		s.Expiry.WarnDays = DefaultExpiryWarnDays
	}

	if s.Tracing.Endpoint == "" {
		s.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if s.Tracing.Timeout == 0 {
		s.Tracing.Timeout = DefaultTracingTimeout
	}
	if s.Tracing.Sampler == "" {
		s.Tracing.Sampler = DefaultTracingSampler
	}
	if s.Tracing.ServiceName == "" {
		s.Tracing.ServiceName = DefaultTracingServiceName
	}
}

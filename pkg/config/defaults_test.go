package config

import "testing"

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Server.Address != DefaultAddress {
		t.Errorf("expected address %q, got %q", DefaultAddress, s.Server.Address)
	}
	if s.Server.ReadHeaderTimeout != DefaultReadHeaderTimeout {
		t.Errorf("expected read header timeout %v, got %v", DefaultReadHeaderTimeout, s.Server.ReadHeaderTimeout)
	}
	if s.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("expected shutdown timeout %v, got %v", DefaultShutdownTimeout, s.Server.ShutdownTimeout)
	}
	if s.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, s.Logging.Level)
	}
	if s.Logging.Format != DefaultLoggingFormat {
		t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, s.Logging.Format)
	}
	if s.Metrics.Enabled != DefaultMetricsEnabled {
		t.Errorf("expected metrics enabled %v, got %v", DefaultMetricsEnabled, s.Metrics.Enabled)
	}
	if s.Metrics.Path != DefaultMetricsPath {
		t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, s.Metrics.Path)
	}
	if s.Health.Path != DefaultHealthPath {
		t.Errorf("expected health path %q, got %q", DefaultHealthPath, s.Health.Path)
	}
	if s.Expiry.Schedule != DefaultExpirySchedule {
		t.Errorf("expected expiry schedule %q, got %q", DefaultExpirySchedule, s.Expiry.Schedule)
	}
	if s.Expiry.WarnDays != DefaultExpiryWarnDays {
		t.Errorf("expected warn days %d, got %d", DefaultExpiryWarnDays, s.Expiry.WarnDays)
	}
	if s.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if s.Tracing.Sampler != DefaultTracingSampler || s.Tracing.SampleRatio != DefaultTracingSampleRatio {
		t.Errorf("expected sampler %s/%v, got %s/%v", DefaultTracingSampler, DefaultTracingSampleRatio, s.Tracing.Sampler, s.Tracing.SampleRatio)
	}
	if s.Tracing.ServiceName != DefaultTracingServiceName {
		t.Errorf("expected service name %q, got %q", DefaultTracingServiceName, s.Tracing.ServiceName)
	}
}

func TestApplyDefaults_PreservesValues(t *testing.T) {
	s := Settings{
		Server:  ServerConfig{Address: "0.0.0.0"},
		Logging: LoggingConfig{Level: "warn"},
		Expiry:  ExpiryConfig{WarnDays: 7},
	}
	ApplyDefaults(&s)

	if s.Server.Address != "0.0.0.0" {
		t.Errorf("expected address to be preserved, got %q", s.Server.Address)
	}
	if s.Logging.Level != "warn" {
		t.Errorf("expected level to be preserved, got %q", s.Logging.Level)
	}
	if s.Logging.Format != DefaultLoggingFormat {
		t.Errorf("expected default format, got %q", s.Logging.Format)
	}
	if s.Expiry.WarnDays != 7 {
		t.Errorf("expected warn days to be preserved, got %d", s.Expiry.WarnDays)
	}
	if s.Metrics.Enabled {
		t.Error("ApplyDefaults should not turn metrics on")
	}
}

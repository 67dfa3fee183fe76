package config

import (
	"fmt"
	"time"
)

// Application property keys.
const (
	KeyLocalPort          = "local.port"
	KeySecurityConfigPath = "security.config.filepath"

	KeyLocalAddress      = "local.address"
	KeyReadHeaderTimeout = "server.read.header.timeout"
	KeyShutdownTimeout   = "server.shutdown.timeout"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyMetricsEnabled    = "metrics.enabled"
	KeyMetricsPath       = "metrics.path"
	KeyHealthPath        = "health.path"
	KeyExpirySchedule    = "certificate.expiry.schedule"
	KeyExpiryWarnDays    = "certificate.expiry.warn.days"

	KeyTracingEnabled     = "tracing.enabled"
	KeyTracingEndpoint    = "tracing.endpoint"
	KeyTracingInsecure    = "tracing.insecure"
	KeyTracingTimeout     = "tracing.timeout"
	KeyTracingSampler     = "tracing.sampler"
	KeyTracingSampleRatio = "tracing.sample.ratio"
	KeyTracingService     = "tracing.service.name"
)

// Security property keys.
const (
	KeyKeystorePath     = "keystore.filepath"
	KeyKeystorePassword = "keystore.password"
	KeyEntryAlias       = "entry.alias"
	KeyEntryPassword    = "entry.key.password"
)

// Settings holds the optional application settings.
type Settings struct {
	Server  ServerConfig
	Logging LoggingConfig
	Metrics MetricsConfig
	Health  HealthConfig
	Expiry  ExpiryConfig
	Tracing TracingConfig
}

// ServerConfig configures the HTTPS listener.
type ServerConfig struct {
	// Address is the interface the listener binds to.
	Address string

	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// HealthConfig configures the health endpoint.
type HealthConfig struct {
	Path string
}

// ExpiryConfig configures the certificate expiry monitor.
type ExpiryConfig struct {
	// Schedule is a cron expression or descriptor such as "@daily".
	Schedule string

	// WarnDays is how many days before expiry a warning is logged.
	WarnDays int
}

// TracingConfig configures OpenTelemetry tracing of startup stages and
// requests.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// Timeout bounds each export.
	Timeout time.Duration

	// Sampler is "always", "never" or "ratio".
	Sampler string

	// SampleRatio is the fraction of traces sampled by the "ratio" sampler.
	SampleRatio float64

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string
}

// Security holds the keystore settings read from the security properties.
// Password fields hold the raw property value, which may be a ${secret:name}
// reference.
type Security struct {
	KeystorePath     string
	KeystorePassword string
	Alias            string
	EntryPassword    string
}

// String renders s without its passwords.
func (s Security) String() string {
	return fmt.Sprintf("{KeystorePath:%s Alias:%s KeystorePassword:[REDACTED] EntryPassword:[REDACTED]}",
		s.KeystorePath, s.Alias)
}

// KeyError reports a mandatory key that is missing or holds an unusable value.
type KeyError struct {
	// Key is the property name.
	Key string

	// Message describes the problem without repeating secret values.
	Message string

	// Err is the underlying parse error, if any.
	Err error
}

func (e *KeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the property key (e.g., "log.level").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("configuration validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Validate validates s and returns a ValidationError if any rule fails.
func Validate(s *Settings) error {
	if errs := validateSettings(s); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateSettings(s *Settings) []FieldError {
	var errs []FieldError
	errs = append(errs, validateServer(&s.Server)...)
	errs = append(errs, validateTelemetry(s)...)
	errs = append(errs, validateExpiry(&s.Expiry)...)
	errs = append(errs, validateTracing(&s.Tracing)...)
	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Address == "" {
		errs = append(errs, FieldError{Field: KeyLocalAddress, Message: "address is required"})
	} else if strings.ContainsAny(cfg.Address, ":/ ") && net.ParseIP(cfg.Address) == nil {
		errs = append(errs, FieldError{Field: KeyLocalAddress, Message: fmt.Sprintf("%q is not a host name or IP address", cfg.Address)})
	}

	if cfg.ReadHeaderTimeout <= 0 {
		errs = append(errs, FieldError{Field: KeyReadHeaderTimeout, Message: "timeout must be positive"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{Field: KeyShutdownTimeout, Message: "timeout must be positive"})
	}

	return errs
}

func validateTelemetry(s *Settings) []FieldError {
	var errs []FieldError

	switch s.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   KeyLogLevel,
			Message: fmt.Sprintf("invalid log level %q (must be one of: debug, info, warn, error)", s.Logging.Level),
		})
	}

	switch s.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   KeyLogFormat,
			Message: fmt.Sprintf("invalid log format %q (must be one of: json, text)", s.Logging.Format),
		})
	}

	if !strings.HasPrefix(s.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: KeyMetricsPath, Message: "path must start with /"})
	}
	if !strings.HasPrefix(s.Health.Path, "/") {
		errs = append(errs, FieldError{Field: KeyHealthPath, Message: "path must start with /"})
	}
	if s.Metrics.Enabled && s.Metrics.Path == s.Health.Path {
		errs = append(errs, FieldError{Field: KeyHealthPath, Message: "path conflicts with " + KeyMetricsPath})
	}
	if s.Metrics.Path == "/" {
		errs = append(errs, FieldError{Field: KeyMetricsPath, Message: "/ is reserved for the echo handler"})
	}
	if s.Health.Path == "/" {
		errs = append(errs, FieldError{Field: KeyHealthPath, Message: "/ is reserved for the echo handler"})
	}

	return errs
}

func validateExpiry(cfg *ExpiryConfig) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{Field: KeyExpirySchedule, Message: fmt.Sprintf("invalid cron schedule: %v", err)})
	}
	if cfg.WarnDays < 0 {
		errs = append(errs, FieldError{Field: KeyExpiryWarnDays, Message: "must be non-negative"})
	}

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   KeyTracingSampler,
			Message: fmt.Sprintf("invalid sampler %q (must be one of: always, never, ratio)", cfg.Sampler),
		})
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   KeyTracingSampleRatio,
			Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.SampleRatio),
		})
	}

	if !cfg.Enabled {
		return errs
	}
	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{Field: KeyTracingEndpoint, Message: "tracing endpoint is required when tracing is enabled"})
	} else if _, _, err := net.SplitHostPort(cfg.Endpoint); err != nil {
		errs = append(errs, FieldError{Field: KeyTracingEndpoint, Message: fmt.Sprintf("%q is not host:port", cfg.Endpoint)})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: KeyTracingTimeout, Message: "timeout must be positive"})
	}
	if cfg.ServiceName == "" {
		errs = append(errs, FieldError{Field: KeyTracingService, Message: "service name is required"})
	}

	return errs
}

package config

import (
	"strconv"
	"strings"
	"time"

	"mercator-hq/keyport/pkg/properties"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYPORT_"

// overridableKeys lists the application keys that may be overridden even
// when absent from the properties resource.
var overridableKeys = []string{
	KeyLocalPort,
	KeySecurityConfigPath,
	KeyLocalAddress,
	KeyReadHeaderTimeout,
	KeyShutdownTimeout,
	KeyLogLevel,
	KeyLogFormat,
	KeyMetricsEnabled,
	KeyMetricsPath,
	KeyHealthPath,
	KeyExpirySchedule,
	KeyExpiryWarnDays,
	KeyTracingEnabled,
	KeyTracingEndpoint,
	KeyTracingInsecure,
	KeyTracingTimeout,
	KeyTracingSampler,
	KeyTracingSampleRatio,
	KeyTracingService,
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// ApplyEnvOverrides returns a copy of m with environment overrides applied.
// lookup is typically os.LookupEnv. Empty variables are ignored.
func ApplyEnvOverrides(m properties.Map, lookup func(string) (string, bool)) properties.Map {
	out := make(properties.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	if lookup == nil {
		return out
	}

	keys := append(m.Keys(), overridableKeys...)
	for _, key := range keys {
		if val, ok := lookup(EnvName(key)); ok && val != "" {
			out[key] = val
		}
	}
	return out
}

// Port extracts local.port as an integer in [1, 65535].
func Port(m properties.Map) (int, error) {
	raw, err := required(m, KeyLocalPort)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &KeyError{Key: KeyLocalPort, Message: strconv.Quote(raw) + " is not an integer"}
	}
	if port < 1 || port > 65535 {
		return 0, &KeyError{Key: KeyLocalPort, Message: strconv.Itoa(port) + " is outside [1, 65535]"}
	}
	return port, nil
}

// SecurityConfigPath extracts the name of the security properties resource.
func SecurityConfigPath(m properties.Map) (string, error) {
	return required(m, KeySecurityConfigPath)
}

// ParseSecurity extracts the four mandatory keystore settings. The first
// missing key is reported.
func ParseSecurity(m properties.Map) (Security, error) {
	var s Security
	fields := []struct {
		key string
		dst *string
	}{
		{KeyKeystorePath, &s.KeystorePath},
		{KeyKeystorePassword, &s.KeystorePassword},
		{KeyEntryAlias, &s.Alias},
		{KeyEntryPassword, &s.EntryPassword},
	}
	for _, f := range fields {
		v, ok := m.Get(f.key)
		if !ok {
			return Security{}, &KeyError{Key: f.key, Message: "required key is missing"}
		}
		*f.dst = v
	}

	s.KeystorePath = strings.TrimSpace(s.KeystorePath)
	if s.KeystorePath == "" {
		return Security{}, &KeyError{Key: KeyKeystorePath, Message: "value is empty"}
	}
	if strings.TrimSpace(s.Alias) == "" {
		return Security{}, &KeyError{Key: KeyEntryAlias, Message: "value is empty"}
	}
	return s, nil
}

// ParseSettings reads the optional application settings, applying defaults
// for absent keys, and validates the result.
func ParseSettings(m properties.Map) (Settings, error) {
	s := DefaultSettings()
	var errs []FieldError

	str := func(key string, dst *string) {
		if v, ok := m.Get(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := m.Get(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, FieldError{Field: key, Message: "invalid duration " + strconv.Quote(v)})
				return
			}
			*dst = d
		}
	}

	str(KeyLocalAddress, &s.Server.Address)
	dur(KeyReadHeaderTimeout, &s.Server.ReadHeaderTimeout)
	dur(KeyShutdownTimeout, &s.Server.ShutdownTimeout)
	str(KeyLogLevel, &s.Logging.Level)
	str(KeyLogFormat, &s.Logging.Format)
	str(KeyMetricsPath, &s.Metrics.Path)
	str(KeyHealthPath, &s.Health.Path)
	str(KeyExpirySchedule, &s.Expiry.Schedule)
	str(KeyTracingEndpoint, &s.Tracing.Endpoint)
	dur(KeyTracingTimeout, &s.Tracing.Timeout)
	str(KeyTracingSampler, &s.Tracing.Sampler)
	str(KeyTracingService, &s.Tracing.ServiceName)

	boolean := func(key string, dst *bool) {
		if v, ok := m.Get(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, FieldError{Field: key, Message: "invalid boolean " + strconv.Quote(v)})
				return
			}
			*dst = b
		}
	}
	boolean(KeyMetricsEnabled, &s.Metrics.Enabled)
	boolean(KeyTracingEnabled, &s.Tracing.Enabled)
	boolean(KeyTracingInsecure, &s.Tracing.Insecure)

	if v, ok := m.Get(KeyTracingSampleRatio); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, FieldError{Field: KeyTracingSampleRatio, Message: "invalid number " + strconv.Quote(v)})
		} else {
			s.Tracing.SampleRatio = f
		}
	}
	if v, ok := m.Get(KeyExpiryWarnDays); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, FieldError{Field: KeyExpiryWarnDays, Message: "invalid integer " + strconv.Quote(v)})
		} else {
			s.Expiry.WarnDays = n
		}
	}

	errs = append(errs, validateSettings(&s)...)
	if len(errs) > 0 {
		return Settings{}, ValidationError{Errors: errs}
	}
	return s, nil
}

func required(m properties.Map, key string) (string, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", &KeyError{Key: key, Message: "required key is missing"}
	}
	if strings.TrimSpace(v) == "" {
		return "", &KeyError{Key: key, Message: "value is empty"}
	}
	return strings.TrimSpace(v), nil
}

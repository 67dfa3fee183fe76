// Package config turns loaded properties into typed keyport settings.
//
// Two resources feed the server. The application properties carry the
// listening port, the name of the security properties resource and the
// optional ambient settings (logging, metrics, health, certificate expiry
// monitoring). The security properties carry the keystore location, the
// alias of the server entry and both passwords.
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the application properties
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention KEYPORT_<KEY>, with the
// key upper-cased and dots replaced by underscores:
//
//   - KEYPORT_LOCAL_PORT overrides local.port
//   - KEYPORT_LOG_LEVEL overrides log.level
//   - KEYPORT_METRICS_ENABLED overrides metrics.enabled
//
// Overrides apply to the application properties only. The security
// properties are read exactly as written.
//
// # Errors
//
// A missing or malformed mandatory key is reported as a *KeyError naming the
// key. Ambient settings are validated together and reported as a
// ValidationError listing every offending field.
package config

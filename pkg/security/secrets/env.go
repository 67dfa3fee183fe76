package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Secret names are converted to uppercase environment variable names
// with hyphens replaced by underscores, then prefixed.
//
// Example:
//   - Secret name: "keystore-password"
//   - Env var name: "KEYPORT_SECRET_KEYSTORE_PASSWORD" (with prefix "KEYPORT_SECRET_")
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		Prefix: prefix,
	}
}

// GetSecret retrieves a secret from an environment variable.
// An empty variable counts as missing.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (Value, error) {
	envVar := p.secretNameToEnvVar(name)

	value, ok := os.LookupEnv(envVar)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found in environment: %s (env var: %s)", name, envVar)
	}

	return NewValue(value), nil
}

// ListSecrets returns the names of all secrets exposed through prefixed
// environment variables.
func (p *EnvProvider) ListSecrets(ctx context.Context) ([]string, error) {
	var secrets []string

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, p.Prefix) {
			continue
		}

		envVarName, _, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		secrets = append(secrets, p.envVarToSecretName(envVarName))
	}

	return secrets, nil
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}

// Supports always returns true so the environment can act as a fallback.
func (p *EnvProvider) Supports(name string) bool {
	return true
}

// secretNameToEnvVar converts a secret name to an environment variable name.
//
// Example: "keystore-password" -> "KEYPORT_SECRET_KEYSTORE_PASSWORD"
func (p *EnvProvider) secretNameToEnvVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// envVarToSecretName converts an environment variable name back to a secret name.
func (p *EnvProvider) envVarToSecretName(envVar string) string {
	name := strings.TrimPrefix(envVar, p.Prefix)
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

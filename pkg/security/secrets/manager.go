package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

var (
	// secretRefRegex matches ${secret:name} patterns in configuration
	secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)
)

// Manager orchestrates multiple secret providers with priority-based fallback.
type Manager struct {
	providers []SecretProvider
	tracker   Tracker
}

// Option configures a Manager.
type Option func(*Manager)

// WithTracker registers t to receive every value the manager resolves.
func WithTracker(t Tracker) Option {
	return func(m *Manager) {
		m.tracker = t
	}
}

// NewManager creates a new secret manager. Providers are tried in order and
// the first one that supports a secret and returns a value wins.
func NewManager(providers []SecretProvider, opts ...Option) *Manager {
	m := &Manager{providers: providers}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetSecret retrieves a secret from the first provider that supports it.
func (m *Manager) GetSecret(ctx context.Context, name string) (Value, error) {
	var lastErr error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}

		slog.Debug("trying secret provider",
			"provider", provider.Provider(),
			"name", redactSecretName(name),
		)

		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			slog.Debug("provider failed to get secret",
				"provider", provider.Provider(),
				"name", redactSecretName(name),
				"error", err,
			)
			continue
		}

		m.track(value)
		return value, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}

	return nil, fmt.Errorf("secret not found: %q (no provider supports this secret)", name)
}

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return secretRefRegex.MatchString(s)
}

// Resolve turns a configuration value into a Value, replacing every
// ${secret:name} reference with the named secret. Unlike a partial
// substitution, any unresolved reference fails the whole value.
func (m *Manager) Resolve(ctx context.Context, raw string) (Value, error) {
	matches := secretRefRegex.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		value := NewValue(raw)
		m.track(value)
		return value, nil
	}

	var (
		out    Value
		errs   []string
		cursor int
	)
	for _, match := range matches {
		out = append(out, raw[cursor:match[0]]...)
		cursor = match[1]

		name := raw[match[2]:match[3]]
		secret, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		out = append(out, secret...)
		secret.Zero()
	}
	out = append(out, raw[cursor:]...)

	if len(errs) > 0 {
		out.Zero()
		return nil, fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}

	m.track(out)
	return out, nil
}

// ListSecrets returns all secret names from all providers, sorted.
func (m *Manager) ListSecrets(ctx context.Context) ([]string, error) {
	secretMap := make(map[string]bool)

	for _, provider := range m.providers {
		secrets, err := provider.ListSecrets(ctx)
		if err != nil {
			slog.Warn("failed to list secrets from provider",
				"provider", provider.Provider(),
				"error", err,
			)
			continue
		}

		for _, secret := range secrets {
			secretMap[secret] = true
		}
	}

	secrets := make([]string, 0, len(secretMap))
	for secret := range secretMap {
		secrets = append(secrets, secret)
	}
	sort.Strings(secrets)

	return secrets, nil
}

func (m *Manager) track(v Value) {
	if m.tracker != nil && len(v) > 0 {
		m.tracker.Track(v)
	}
}

// redactSecretName returns a shortened secret name for debug logging.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}

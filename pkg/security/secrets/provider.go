package secrets

import "context"

// SecretProvider retrieves secrets from a backend.
type SecretProvider interface {
	// GetSecret retrieves a secret by name. The caller owns the returned
	// Value and should Zero it when done.
	GetSecret(ctx context.Context, name string) (Value, error)

	// ListSecrets returns all secret names available from this provider.
	// Values are not included.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the provider name (env, file).
	Provider() string

	// Supports indicates if this provider can serve the given secret name.
	Supports(name string) bool
}

// Tracker is told about every resolved secret so that it can be masked in
// diagnostic output.
type Tracker interface {
	Track(secret []byte)
}

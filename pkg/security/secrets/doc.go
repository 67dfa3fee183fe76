/*
Package secrets holds keystore passwords and resolves them from pluggable sources.

# Values

Passwords are carried as Value, a byte slice that can be wiped with Zero once
it has served its purpose. Value never prints its contents: String, GoString
and LogValue all render "[REDACTED]", so a Value passed to fmt or slog by
mistake does not leak.

	pw := secrets.NewValue("changeit")
	defer pw.Zero()

# Secret Providers

Providers look secrets up by name:

  - Environment Variable Provider: KEYPORT_SECRET_KEYSTORE_PASSWORD for "keystore-password"
  - File-Based Provider: one file per secret, Kubernetes-style, mode 0600 or 0400

# Secret References

Configuration values may reference a secret instead of holding it:

	keystore.password=${secret:keystore-password}

The manager resolves such references:

	manager := secrets.NewManager(
		[]secrets.SecretProvider{
			secrets.NewEnvProvider("KEYPORT_SECRET_"),
			fileProvider,
		},
	)

	pw, err := manager.Resolve(ctx, props["keystore.password"])

A value without references is returned as is. Every resolved value is handed
to the configured Tracker so log redaction can mask it wherever it appears.
*/
package secrets

/*
Package security groups the key material handling of keyport.

# PKCS#12

Package pkcs12 reads and writes PKCS#12 containers. Each private key bag
may be protected by its own password:

	container, err := pkcs12.Decode(data, storePassword)
	for _, bag := range container.Bags {
		if bag.Type.HoldsPrivateKey() {
			key, err := bag.PrivateKey(entryPassword)
		}
	}

# TLS Contexts

Package tls builds a server-side TLS context from a private key and its
certificate chain:

	tlsCtx, err := tls.Build(key, chain)
	srv := &http.Server{TLSConfig: tlsCtx.Config()}

# Secret Management

Package secrets resolves ${secret:name} password references from
environment variables and secret files:

	manager := secrets.NewManager([]secrets.SecretProvider{
		secrets.NewEnvProvider("KEYPORT_SECRET_"),
		fileProvider,
	})

	password, err := manager.Resolve(ctx, "${secret:keystore-password}")
	if err != nil {
		return err
	}
	defer password.Zero()

# Certificate Expiry

Package expiry checks the serving certificate on a cron schedule and
warns before it expires.
*/
package security

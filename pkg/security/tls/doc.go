/*
Package tls turns a decoded server identity into a ready-to-serve TLS context.

# Building a Server Context

Build binds a private key and its certificate chain, leaf first, into a
crypto/tls server configuration that keeps the library's default protocol
versions and cipher suites:

	data, err := keystore.Decode(ctx, creds)
	if err != nil {
		return err
	}

	sc, err := tls.Build(data.PrivateKey, data.Chain)
	if err != nil {
		return err
	}

	srv := &http.Server{TLSConfig: sc.Config()}

The ServerContext is immutable. Config returns a fresh clone on every call,
so callers may adjust their copy without affecting others.

# Errors

Build fails with a *BuildError whose Kind is one of ErrUnsupportedKeyAlgorithm,
ErrInvalidChain or ErrTLSInitFailure. Expired certificates are accepted; use
CheckCertificateExpiration to report on them.

# Certificate Inspection

ValidateX509Certificate, CheckCertificateExpiration and ExtractCertificateInfo
report on validity windows and render certificates for humans.
*/
package tls

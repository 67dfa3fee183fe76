// Package server provides the HTTPS listener that serves a prepared TLS
// context.
//
// The server binds the configured address and port, terminates TLS with the
// context built at startup and serves three routes:
//
//   - GET / echoes the request back in plain text
//   - GET /health reports the certificate health as JSON
//   - GET /metrics exposes Prometheus metrics when metrics are enabled
//
// # Lifecycle
//
// Serve blocks until the context is canceled, SIGINT or SIGTERM arrives or
// serving fails. Shutdown is graceful and bounded by the configured shutdown
// timeout:
//
//	srv := server.New(server.Options{Settings: settings, Logger: logger})
//	if err := srv.Serve(ctx, tlsCtx, 8443); err != nil {
//	    return err
//	}
//
// While serving, a certificate expiry monitor re-checks the served leaf on
// the configured cron schedule.
package server

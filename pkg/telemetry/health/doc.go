// Package health reports whether the keyport listener is fit to serve.
//
// A Checker runs named component checks concurrently, each under a timeout,
// and aggregates them into a single status. The HTTP handler answers 200 when
// every check passes and 503 otherwise:
//
//	checker := health.New(5*time.Second, version.Version)
//	checker.RegisterCheck("tls_certificate", health.CertificateCheck(leaf, time.Now))
//	mux.Handle("/health", checker.Handler())
//
// Example response (degraded):
//
//	{
//	    "status": "degraded",
//	    "version": "1.0.0",
//	    "checks": {
//	        "tls_certificate": {"status": "unhealthy", "message": "certificate expired on 2026-01-01T00:00:00Z"}
//	    },
//	    "timestamp": "2026-02-01T10:30:00Z"
//	}
package health

package health

import (
	"context"
	"crypto/x509"
	"time"

	securityTLS "mercator-hq/keyport/pkg/security/tls"
)

// CertificateCheck reports the served certificate as unhealthy once it falls
// outside its validity window.
func CertificateCheck(leaf *x509.Certificate, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}
	return func(context.Context) error {
		return securityTLS.ValidateX509Certificate(leaf, now())
	}
}

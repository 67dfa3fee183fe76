package keystore

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"log/slog"

	"mercator-hq/keyport/pkg/security/secrets"
)

// Credentials address one entry of a keystore.
type Credentials struct {
	Path             string
	KeystorePassword secrets.Value
	Alias            string
	EntryPassword    secrets.Value
}

// String renders the credentials without their passwords.
func (c Credentials) String() string {
	return fmt.Sprintf("{Path:%s Alias:%s KeystorePassword:%s EntryPassword:%s}",
		c.Path, c.Alias, c.KeystorePassword, c.EntryPassword)
}

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", c.Path),
		slog.String("alias", c.Alias),
	)
}

// Zero wipes both passwords.
func (c *Credentials) Zero() {
	c.KeystorePassword.Zero()
	c.EntryPassword.Zero()
}

// Data is a decoded server identity. Chain holds the leaf first, followed by
// its issuers in order.
type Data struct {
	PrivateKey crypto.PrivateKey
	Chain      []*x509.Certificate
}

// Leaf returns the end-entity certificate, or nil for an empty chain.
func (d *Data) Leaf() *x509.Certificate {
	if d == nil || len(d.Chain) == 0 {
		return nil
	}
	return d.Chain[0]
}

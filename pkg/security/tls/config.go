package tls

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ServerContext is an immutable server-side TLS context.
type ServerContext struct {
	config *tls.Config
	chain  []*x509.Certificate
}

// Config returns a clone of the server configuration.
func (s *ServerContext) Config() *tls.Config {
	return s.config.Clone()
}

// Leaf returns the server certificate.
func (s *ServerContext) Leaf() *x509.Certificate {
	return s.chain[0]
}

// Chain returns a copy of the certificate chain, leaf first.
func (s *ServerContext) Chain() []*x509.Certificate {
	out := make([]*x509.Certificate, len(s.chain))
	copy(out, s.chain)
	return out
}

// Build binds key and chain into a server context with crypto/tls defaults.
// chain must start with the certificate for key. Certificates outside their
// validity window are accepted.
func Build(key crypto.PrivateKey, chain []*x509.Certificate) (*ServerContext, error) {
	signer, err := supportedSigner(key)
	if err != nil {
		return nil, &BuildError{Kind: ErrUnsupportedKeyAlgorithm, Err: err}
	}

	if err := validateChain(signer, chain); err != nil {
		return nil, &BuildError{Kind: ErrInvalidChain, Err: err}
	}

	cert, err := keyPair(key, chain)
	if err != nil {
		return nil, &BuildError{Kind: ErrTLSInitFailure, Err: err}
	}

	owned := make([]*x509.Certificate, len(chain))
	copy(owned, chain)

	return &ServerContext{
		config: &tls.Config{Certificates: []tls.Certificate{cert}},
		chain:  owned,
	}, nil
}

func supportedSigner(key crypto.PrivateKey) (crypto.Signer, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	case ed25519.PrivateKey:
		return k, nil
	case nil:
		return nil, errors.New("no private key")
	default:
		return nil, fmt.Errorf("%T", key)
	}
}

func validateChain(signer crypto.Signer, chain []*x509.Certificate) error {
	if len(chain) == 0 {
		return errors.New("chain is empty")
	}
	for i, c := range chain {
		if c == nil {
			return fmt.Errorf("certificate %d is nil", i)
		}
	}

	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(chain[0].PublicKey) {
		return fmt.Errorf("leaf certificate %q does not match the private key", chain[0].Subject.String())
	}
	return nil
}

// keyPair round-trips the identity through tls.X509KeyPair so crypto/tls
// performs its own consistency checks.
func keyPair(key crypto.PrivateKey, chain []*x509.Certificate) (tls.Certificate, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return tls.Certificate{}, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	defer clear(keyPEM)
	clear(der)

	var certPEM []byte
	for _, c := range chain {
		certPEM = append(certPEM, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}

package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/keyport/pkg/security/pkcs12"
	"mercator-hq/keyport/pkg/security/secrets"
)

const (
	storePassword = "store-pass-1"
	entryPassword = "entry-pass-2"
)

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func creds(path, storePW, alias, entryPW string) Credentials {
	return Credentials{
		Path:             path,
		KeystorePassword: secrets.NewValue(storePW),
		Alias:            alias,
		EntryPassword:    secrets.NewValue(entryPW),
	}
}

func newCert(t *testing.T, cn string, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("failed to generate serial: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	if parent == nil {
		template.IsCA = true
		template.BasicConstraintsValid = true
		template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
		parent, parentKey = template, key
	} else {
		template.KeyUsage = x509.KeyUsageDigitalSignature
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
		template.DNSNames = []string{cn}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return key, cert
}

// writeKeystore encodes a keystore holding a "server" key entry signed by a
// CA and a "trusted-ca" certificate entry, using separate passwords.
func writeKeystore(t *testing.T) (path string, key *ecdsa.PrivateKey, leaf, ca *x509.Certificate) {
	t.Helper()

	caKey, ca := newCert(t, "Keystore Test CA", nil, nil)
	key, leaf = newCert(t, "localhost", ca, caKey)

	data, err := pkcs12.Encode([]pkcs12.Entry{
		{Alias: "server", PrivateKey: key, Certificates: []*x509.Certificate{leaf, ca}, Password: []byte(entryPassword)},
		{Alias: "trusted-ca", Certificates: []*x509.Certificate{ca}},
	}, []byte(storePassword), &pkcs12.EncodeOptions{Iterations: 64})
	if err != nil {
		t.Fatalf("failed to encode keystore: %v", err)
	}

	path = filepath.Join(t.TempDir(), "keystore.p12")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write keystore: %v", err)
	}
	return path, key, leaf, ca
}

// countingOpener records every open and close.
type countingOpener struct {
	opened []string
	closed int
}

func (o *countingOpener) open(path string) (io.ReadCloser, error) {
	o.opened = append(o.opened, path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &countingFile{File: f, closed: &o.closed}, nil
}

type countingFile struct {
	*os.File
	closed *int
}

func (f *countingFile) Close() error {
	*f.closed++
	return f.File.Close()
}

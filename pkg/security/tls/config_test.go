package tls

import (
	"context"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func TestBuild_KeyAlgorithms(t *testing.T) {
	root := issue(t, certOptions{cn: "Build Test Root"})

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate ECDSA key: %v", err)
	}
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate Ed25519 key: %v", err)
	}

	tests := []struct {
		name string
		key  crypto.Signer
	}{
		{"rsa", rsaKey},
		{"ecdsa", ecKey},
		{"ed25519", edKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaf := issue(t, certOptions{cn: "localhost", key: tt.key, parent: root})

			sc, err := Build(tt.key, []*x509.Certificate{leaf.cert, root.cert})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if !sc.Leaf().Equal(leaf.cert) {
				t.Error("Leaf() is not the first chain certificate")
			}

			cfg := sc.Config()
			if len(cfg.Certificates) != 1 {
				t.Fatalf("got %d certificates, want 1", len(cfg.Certificates))
			}
			if got := len(cfg.Certificates[0].Certificate); got != 2 {
				t.Errorf("certificate chain length = %d, want 2", got)
			}
			if cfg.MinVersion != 0 || cfg.CipherSuites != nil {
				t.Error("expected crypto/tls default protocol policy")
			}
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	root := issue(t, certOptions{cn: "Build Test Root"})
	leaf := issue(t, certOptions{cn: "localhost", parent: root})
	other := issue(t, certOptions{cn: "other", parent: root})

	ecdhKey, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate X25519 key: %v", err)
	}

	tests := []struct {
		name  string
		key   crypto.PrivateKey
		chain []*x509.Certificate
		want  error
	}{
		{"nil key", nil, []*x509.Certificate{leaf.cert}, ErrUnsupportedKeyAlgorithm},
		{"x25519 key", ecdhKey, []*x509.Certificate{leaf.cert}, ErrUnsupportedKeyAlgorithm},
		{"rsa public key", &rsa.PublicKey{}, []*x509.Certificate{leaf.cert}, ErrUnsupportedKeyAlgorithm},
		{"empty chain", leaf.key, nil, ErrInvalidChain},
		{"nil certificate", leaf.key, []*x509.Certificate{leaf.cert, nil}, ErrInvalidChain},
		{"leaf for another key", leaf.key, []*x509.Certificate{other.cert, root.cert}, ErrInvalidChain},
		{"issuer first", leaf.key, []*x509.Certificate{root.cert, leaf.cert}, ErrInvalidChain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := Build(tt.key, tt.chain)
			if sc != nil {
				t.Error("expected nil context on failure")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
			var buildErr *BuildError
			if !errors.As(err, &buildErr) {
				t.Errorf("expected *BuildError, got %T", err)
			}
		})
	}
}

func TestBuild_ExpiredCertificateAccepted(t *testing.T) {
	root := issue(t, certOptions{cn: "Build Test Root"})
	expired := issue(t, certOptions{
		cn:        "localhost",
		parent:    root,
		notBefore: time.Now().Add(-48 * time.Hour),
		notAfter:  time.Now().Add(-24 * time.Hour),
	})

	if _, err := Build(expired.key, []*x509.Certificate{expired.cert}); err != nil {
		t.Fatalf("Build() error = %v, expired certificates must still build", err)
	}
}

func TestServerContext_Immutable(t *testing.T) {
	root := issue(t, certOptions{cn: "Build Test Root"})
	leaf := issue(t, certOptions{cn: "localhost", parent: root})

	chain := []*x509.Certificate{leaf.cert, root.cert}
	sc, err := Build(leaf.key, chain)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	chain[0] = nil
	if sc.Leaf() == nil {
		t.Error("context shares the caller's chain slice")
	}

	cfg := sc.Config()
	cfg.Certificates = nil
	cfg.MinVersion = tls.VersionTLS13
	if fresh := sc.Config(); len(fresh.Certificates) != 1 || fresh.MinVersion != 0 {
		t.Error("modifying a returned config changed the context")
	}

	got := sc.Chain()
	got[1] = nil
	if sc.Chain()[1] == nil {
		t.Error("Chain() exposes internal state")
	}
}

func TestBuild_Handshake(t *testing.T) {
	root := issue(t, certOptions{cn: "Handshake Root"})
	intermediate := issue(t, certOptions{cn: "Handshake Intermediate", parent: root, ca: true})
	leaf := issue(t, certOptions{cn: "localhost", parent: intermediate})

	sc, err := Build(leaf.key, []*x509.Certificate{leaf.cert, intermediate.cert})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	roots := x509.NewCertPool()
	roots.AddCert(root.cert)

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		server := tls.Server(serverConn, sc.Config())
		if err := server.HandshakeContext(ctx); err != nil {
			errc <- err
			return
		}
		_, err := io.WriteString(server, "ok")
		errc <- err
	}()

	client := tls.Client(clientConn, &tls.Config{RootCAs: roots, ServerName: "localhost"})
	if err := client.HandshakeContext(ctx); err != nil {
		t.Fatalf("client handshake failed: %v", err)
	}

	buf := make([]byte, 2)
	if _, err := io.ReadFull(client, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "ok" {
		t.Errorf("read %q, want ok", buf)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server side failed: %v", err)
	}

	state := client.ConnectionState()
	if len(state.PeerCertificates) != 2 || !state.PeerCertificates[0].Equal(leaf.cert) {
		t.Errorf("peer certificates = %d, want leaf and intermediate", len(state.PeerCertificates))
	}
}

package keystore

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func publicKeyMatches(t *testing.T, data *Data) {
	t.Helper()
	signer, ok := data.PrivateKey.(crypto.Signer)
	if !ok {
		t.Fatalf("private key %T is not a crypto.Signer", data.PrivateKey)
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(data.Leaf().PublicKey) {
		t.Error("leaf public key does not match the private key")
	}
}

func TestDecode_Fixtures(t *testing.T) {
	tests := []struct {
		name     string
		creds    Credentials
		leafCN   string
		chainLen int
		keyType  string
	}{
		{
			name:     "PBES2 AES-256",
			creds:    creds(fixture("modern.p12"), "changeit", "server", "changeit"),
			leafCN:   "localhost",
			chainLen: 3,
			keyType:  "rsa",
		},
		{
			name:     "legacy RC2 through fallback",
			creds:    creds(fixture("legacy.p12"), "changeit", "server", "changeit"),
			leafCN:   "localhost",
			chainLen: 3,
			keyType:  "rsa",
		},
		{
			name:     "ECDSA",
			creds:    creds(fixture("ecdsa.p12"), "s3cret", "ecdsa-entry", "s3cret"),
			leafCN:   "ec.localhost",
			chainLen: 1,
			keyType:  "ecdsa",
		},
		{
			name:     "alias matched case-insensitively",
			creds:    creds(fixture("modern.p12"), "changeit", "SERVER", "changeit"),
			leafCN:   "localhost",
			chainLen: 3,
			keyType:  "rsa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Decode(context.Background(), tt.creds)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if got := data.Leaf().Subject.CommonName; got != tt.leafCN {
				t.Errorf("leaf CN = %q, want %q", got, tt.leafCN)
			}
			if len(data.Chain) != tt.chainLen {
				t.Errorf("chain length = %d, want %d", len(data.Chain), tt.chainLen)
			}
			for i := 0; i+1 < len(data.Chain); i++ {
				if err := data.Chain[i].CheckSignatureFrom(data.Chain[i+1]); err != nil {
					t.Errorf("chain[%d] is not signed by chain[%d]: %v", i, i+1, err)
				}
			}

			switch tt.keyType {
			case "rsa":
				if _, ok := data.PrivateKey.(*rsa.PrivateKey); !ok {
					t.Errorf("key type = %T, want *rsa.PrivateKey", data.PrivateKey)
				}
			case "ecdsa":
				if _, ok := data.PrivateKey.(*ecdsa.PrivateKey); !ok {
					t.Errorf("key type = %T, want *ecdsa.PrivateKey", data.PrivateKey)
				}
			}
			publicKeyMatches(t, data)
		})
	}
}

func TestDecode_SeparatePasswords(t *testing.T) {
	path, key, leaf, ca := writeKeystore(t)

	data, err := Decode(context.Background(), creds(path, storePassword, "server", entryPassword))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !key.Equal(data.PrivateKey) {
		t.Error("decoded key does not match")
	}
	if len(data.Chain) != 2 || !data.Chain[0].Equal(leaf) || !data.Chain[1].Equal(ca) {
		t.Errorf("chain = %v, want [leaf, ca]", data.Chain)
	}
}

func TestDecode_Errors(t *testing.T) {
	path, _, _, _ := writeKeystore(t)

	dir := t.TempDir()
	textFile := filepath.Join(dir, "not-a-keystore.p12")
	if err := os.WriteFile(textFile, []byte("local.port=8443\n"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{
			name:  "missing file",
			creds: creds(filepath.Join(dir, "absent.p12"), storePassword, "server", entryPassword),
			want:  ErrFileNotReadable,
		},
		{
			name:  "directory",
			creds: creds(dir, storePassword, "server", entryPassword),
			want:  ErrFileNotReadable,
		},
		{
			name:  "not a keystore",
			creds: creds(textFile, storePassword, "server", entryPassword),
			want:  ErrMalformedContainer,
		},
		{
			name:  "wrong keystore password",
			creds: creds(path, "wrong-store", "server", entryPassword),
			want:  ErrWrongKeystorePassword,
		},
		{
			name:  "wrong keystore password on legacy container",
			creds: creds(fixture("legacy.p12"), "bad-pass", "server", "bad-pass"),
			want:  ErrWrongKeystorePassword,
		},
		{
			name:  "alias not found",
			creds: creds(path, storePassword, "missing", entryPassword),
			want:  ErrAliasNotFound,
		},
		{
			name:  "certificate entry",
			creds: creds(path, storePassword, "trusted-ca", entryPassword),
			want:  ErrEntryNotAPrivateKey,
		},
		{
			name:  "wrong entry password",
			creds: creds(path, storePassword, "server", "wrong-entry"),
			want:  ErrWrongEntryPassword,
		},
		{
			name:  "store password used for entry",
			creds: creds(path, storePassword, "server", storePassword),
			want:  ErrWrongEntryPassword,
		},
		{
			name:  "wrong entry password on openssl container",
			creds: creds(fixture("modern.p12"), "changeit", "server", "nope"),
			want:  ErrWrongEntryPassword,
		},
		{
			name:  "legacy container with distinct entry password",
			creds: creds(fixture("legacy.p12"), "changeit", "server", "different"),
			want:  ErrUnsupportedEncryption,
		},
		{
			name:  "md5 integrity MAC",
			creds: creds(fixture("md5mac.p12"), "changeit", "server", "changeit"),
			want:  ErrUnsupportedIntegrityAlgorithm,
		},
		{
			name:  "certificate-only container",
			creds: creds(fixture("certonly.p12"), "changeit", "server", "changeit"),
			want:  ErrAliasNotFound,
		},
	}

	sentinels := []error{
		ErrFileNotReadable, ErrMalformedContainer, ErrWrongKeystorePassword, ErrAliasNotFound,
		ErrWrongEntryPassword, ErrEntryNotAPrivateKey, ErrUnsupportedIntegrityAlgorithm, ErrUnsupportedEncryption,
		ErrCanceled,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Decode(context.Background(), tt.creds)
			if data != nil {
				t.Error("expected nil data on failure")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}
			for _, s := range sentinels {
				if s != tt.want && errors.Is(err, s) {
					t.Errorf("error also matches %v", s)
				}
			}

			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if decErr.Path != tt.creds.Path || decErr.Alias != tt.creds.Alias {
				t.Errorf("DecodeError path/alias = %q/%q", decErr.Path, decErr.Alias)
			}

			msg := err.Error()
			if !strings.Contains(msg, tt.creds.Path) || !strings.Contains(msg, tt.creds.Alias) {
				t.Errorf("error %q does not name path and alias", msg)
			}
			for _, pw := range []string{string(tt.creds.KeystorePassword), string(tt.creds.EntryPassword)} {
				if strings.Contains(msg, pw) {
					t.Errorf("error %q contains a password", msg)
				}
			}
		})
	}
}

func TestDecoder_ClosesFile(t *testing.T) {
	path, _, _, _ := writeKeystore(t)

	tests := []struct {
		name    string
		entryPW string
		wantErr bool
	}{
		{name: "success", entryPW: entryPassword},
		{name: "failure", entryPW: "wrong", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &countingOpener{}
			d := &Decoder{Open: opener.open}

			_, err := d.Decode(context.Background(), creds(path, storePassword, "server", tt.entryPW))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(opener.opened) != 1 || opener.opened[0] != path {
				t.Errorf("opened = %v, want [%s]", opener.opened, path)
			}
			if opener.closed != 1 {
				t.Errorf("closed %d times, want 1", opener.closed)
			}
		})
	}
}

func TestDecode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opener := &countingOpener{}
	d := &Decoder{Open: opener.open}
	_, err := d.Decode(ctx, creds(fixture("modern.p12"), "changeit", "server", "changeit"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decode() error = %v, want context.Canceled", err)
	}
	if !errors.Is(err, ErrCanceled) || errors.Is(err, ErrFileNotReadable) {
		t.Errorf("Decode() error = %v, want kind ErrCanceled", err)
	}
	if len(opener.opened) != 0 {
		t.Errorf("opened %v after cancellation", opener.opened)
	}
}

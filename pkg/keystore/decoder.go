package keystore

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"

	"mercator-hq/keyport/pkg/security/pkcs12"
)

// maxKeystoreSize bounds the bytes read from a keystore file.
const maxKeystoreSize = 16 << 20

// OpenFunc opens a keystore file for reading.
type OpenFunc func(path string) (io.ReadCloser, error)

// Decoder decodes keystores read through Open. The zero value reads from the
// local filesystem.
type Decoder struct {
	Open OpenFunc
}

// Decode reads creds.Path with the default Decoder.
func Decode(ctx context.Context, creds Credentials) (*Data, error) {
	var d Decoder
	return d.Decode(ctx, creds)
}

// Decode opens the keystore, verifies it with the keystore password, locates
// the entry named by creds.Alias and unlocks its private key with the entry
// password.
func (d *Decoder) Decode(ctx context.Context, creds Credentials) (*Data, error) {
	fail := func(kind, err error) (*Data, error) {
		return nil, &DecodeError{Kind: kind, Path: creds.Path, Alias: creds.Alias, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(ErrCanceled, err)
	}

	raw, err := d.read(creds.Path)
	if err != nil {
		return fail(ErrFileNotReadable, err)
	}
	defer clear(raw)

	samePassword := subtle.ConstantTimeCompare(creds.KeystorePassword, creds.EntryPassword) == 1
	c, err := parseContents(raw, creds.KeystorePassword, samePassword)
	if err != nil {
		return fail(containerErrorKind(err), err)
	}

	alias, ok := c.resolveAlias(creds.Alias)
	if !ok {
		return fail(ErrAliasNotFound, nil)
	}
	item, ok := c.key(alias)
	if !ok {
		return fail(ErrEntryNotAPrivateKey, nil)
	}

	if err := ctx.Err(); err != nil {
		return fail(ErrCanceled, err)
	}

	key, err := item.unlock(creds.EntryPassword)
	if err != nil {
		return fail(entryErrorKind(err), err)
	}

	leaf := c.leafFor(item, key)
	if leaf == nil {
		return fail(ErrMalformedContainer, errors.New("no certificate for key entry"))
	}

	return &Data{PrivateKey: key, Chain: c.chainFrom(leaf)}, nil
}

func (d *Decoder) read(path string) ([]byte, error) {
	open := d.Open
	if open == nil {
		open = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}

	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxKeystoreSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxKeystoreSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxKeystoreSize)
	}
	return data, nil
}

// containerErrorKind classifies a failure to open the container itself.
func containerErrorKind(err error) error {
	switch {
	case errors.Is(err, pkcs12.ErrIncorrectPassword), errors.Is(err, pkcs12.ErrDecryption):
		return ErrWrongKeystorePassword
	case errors.Is(err, pkcs12.ErrUnsupportedIntegrity):
		return ErrUnsupportedIntegrityAlgorithm
	case errors.Is(err, pkcs12.ErrUnsupportedEncryption):
		return ErrUnsupportedEncryption
	default:
		return ErrMalformedContainer
	}
}

// entryErrorKind classifies a failure to unlock a private key.
func entryErrorKind(err error) error {
	switch {
	case errors.Is(err, pkcs12.ErrDecryption):
		return ErrWrongEntryPassword
	case errors.Is(err, pkcs12.ErrUnsupportedEncryption):
		return ErrUnsupportedEncryption
	case errors.Is(err, pkcs12.ErrNotPrivateKey):
		return ErrEntryNotAPrivateKey
	default:
		return ErrMalformedContainer
	}
}

package keystore

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotReadable is returned when the keystore file cannot be opened or read.
	ErrFileNotReadable = errors.New("keystore file not readable")

	// ErrMalformedContainer is returned when the file is not a valid PKCS#12 keystore.
	ErrMalformedContainer = errors.New("malformed keystore")

	// ErrWrongKeystorePassword is returned when the keystore password does not
	// verify the container.
	ErrWrongKeystorePassword = errors.New("wrong keystore password")

	// ErrAliasNotFound is returned when no entry carries the requested alias.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrWrongEntryPassword is returned when the entry password does not
	// unlock the private key.
	ErrWrongEntryPassword = errors.New("wrong entry password")

	// ErrEntryNotAPrivateKey is returned when the alias names a certificate
	// rather than a key entry.
	ErrEntryNotAPrivateKey = errors.New("entry is not a private key entry")

	// ErrUnsupportedIntegrityAlgorithm is returned for integrity modes other
	// than password-based HMAC.
	ErrUnsupportedIntegrityAlgorithm = errors.New("unsupported keystore integrity algorithm")

	// ErrUnsupportedEncryption is returned for ciphers the decoder cannot handle.
	ErrUnsupportedEncryption = errors.New("unsupported keystore encryption algorithm")

	// ErrCanceled is returned when the context ends before decoding finishes.
	// The context error is the cause.
	ErrCanceled = errors.New("keystore decode canceled")
)

// DecodeError describes a keystore that could not yield an identity.
type DecodeError struct {
	// Kind is one of the package sentinels.
	Kind error

	// Path is the keystore file.
	Path string

	// Alias is the requested entry, empty when listing a keystore.
	Alias string

	// Err is the underlying cause, if any.
	Err error
}

func (e *DecodeError) Error() string {
	var msg string
	if e.Alias != "" {
		msg = fmt.Sprintf("keystore %q, alias %q: %v", e.Path, e.Alias, e.Kind)
	} else {
		msg = fmt.Sprintf("keystore %q: %v", e.Path, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

package tls

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedKeyAlgorithm is returned for keys other than RSA, ECDSA and Ed25519.
	ErrUnsupportedKeyAlgorithm = errors.New("unsupported private key algorithm")

	// ErrInvalidChain is returned when the chain is empty, contains a nil
	// certificate or does not belong to the private key.
	ErrInvalidChain = errors.New("invalid certificate chain")

	// ErrTLSInitFailure is returned when crypto/tls rejects the identity.
	ErrTLSInitFailure = errors.New("tls initialization failed")
)

// BuildError describes a key and chain that could not become a TLS context.
type BuildError struct {
	Kind error
	Err  error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause.
func (e *BuildError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

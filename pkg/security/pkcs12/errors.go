package pkcs12

import (
	"encoding/asn1"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when the input is not a well-formed PFX structure.
	ErrMalformed = errors.New("pkcs12: malformed container")

	// ErrIncorrectPassword is returned when the integrity MAC does not verify.
	ErrIncorrectPassword = errors.New("pkcs12: integrity check failed, password incorrect")

	// ErrDecryption is returned when encrypted content cannot be decrypted with
	// the supplied password.
	ErrDecryption = errors.New("pkcs12: decryption failed, password incorrect")

	// ErrUnsupportedIntegrity is returned for integrity modes other than
	// password-based HMAC.
	ErrUnsupportedIntegrity = errors.New("pkcs12: unsupported integrity algorithm")

	// ErrUnsupportedEncryption is returned for encryption schemes this package
	// does not implement.
	ErrUnsupportedEncryption = errors.New("pkcs12: unsupported encryption algorithm")

	// ErrNotPrivateKey is returned when a key is requested from a bag that
	// holds something else.
	ErrNotPrivateKey = errors.New("pkcs12: bag does not hold a private key")
)

// AlgorithmError reports an algorithm identifier that could not be handled.
type AlgorithmError struct {
	Kind error
	OID  asn1.ObjectIdentifier
}

func (e *AlgorithmError) Error() string {
	if name, ok := algorithmNames[e.OID.String()]; ok {
		return fmt.Sprintf("%v: %s (%s)", e.Kind, name, e.OID)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.OID)
}

func (e *AlgorithmError) Unwrap() error {
	return e.Kind
}

func malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformed, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}

var algorithmNames = map[string]string{
	oidPBEWithSHAAnd128BitRC4.String():    "pbeWithSHAAnd128BitRC4",
	oidPBEWithSHAAnd40BitRC4.String():     "pbeWithSHAAnd40BitRC4",
	oidPBEWithSHAAnd128BitRC2CBC.String(): "pbeWithSHAAnd128BitRC2-CBC",
	oidPBEWithSHAAnd40BitRC2CBC.String():  "pbeWithSHAAnd40BitRC2-CBC",
	oidPBMAC1.String():                    "PBMAC1",
	oidSignedDataContentType.String():     "signedData",
	oidEnvelopedDataContentType.String():  "envelopedData",
	oidMD5.String():                       "MD5",
}

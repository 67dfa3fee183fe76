package pkcs12

import (
	"crypto/hmac"
	"encoding/asn1"
	"fmt"
)

func computeMAC(alg asn1.ObjectIdentifier, message, salt, password []byte, iterations int) ([]byte, error) {
	d, ok := digestFor(alg)
	if !ok {
		return nil, &AlgorithmError{Kind: ErrUnsupportedIntegrity, OID: alg}
	}
	if iterations < 1 || iterations > maxIterations {
		return nil, malformed(fmt.Sprintf("MAC iteration count %d", iterations), nil)
	}

	key := deriveKey(d, password, salt, iterations, kdfIDMAC, d.size)
	defer clear(key)

	mac := hmac.New(d.new, key)
	mac.Write(message)
	return mac.Sum(nil), nil
}

// verifyMAC checks the container MAC over the authenticated safe content.
func verifyMAC(md *macData, message, password []byte) error {
	expected, err := computeMAC(md.Mac.Algorithm.Algorithm, message, md.MacSalt, password, md.Iterations)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, md.Mac.Digest) {
		return ErrIncorrectPassword
	}
	return nil
}

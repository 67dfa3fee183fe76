package pkcs12

import (
	"crypto"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"
)

const defaultIterations = 2048

// Entry is one aliased keystore entry to encode. An entry without a
// PrivateKey is written as a trusted certificate.
type Entry struct {
	Alias        string
	PrivateKey   crypto.PrivateKey
	Certificates []*x509.Certificate

	// Password protects PrivateKey. When nil the container password is used.
	Password []byte
}

// EncodeOptions tunes Encode. The zero value is usable.
type EncodeOptions struct {
	Iterations int
	Rand       io.Reader
}

// Encode writes entries into a password protected PFX. Certificates are
// stored in one encrypted safe, private keys in shrouded key bags each
// encrypted with its entry password.
func Encode(entries []Entry, password []byte, opts *EncodeOptions) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errors.New("pkcs12: no entries to encode")
	}

	var o EncodeOptions
	if opts != nil {
		o = *opts
	}
	if o.Iterations <= 0 {
		o.Iterations = defaultIterations
	}
	if o.Rand == nil {
		o.Rand = rand.Reader
	}

	pw, err := newSecret(password)
	if err != nil {
		return nil, fmt.Errorf("pkcs12: %w", err)
	}
	defer pw.zero()

	var certBags, keyBags []safeBag
	for _, e := range entries {
		if len(e.Certificates) == 0 {
			return nil, fmt.Errorf("pkcs12: entry %q has no certificates", e.Alias)
		}

		attrs, err := entryAttributes(e)
		if err != nil {
			return nil, err
		}

		for i, cert := range e.Certificates {
			bag, err := makeCertBag(cert)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				bag.Attributes = attrs
			}
			certBags = append(certBags, bag)
		}

		if e.PrivateKey == nil {
			continue
		}

		keyPassword := e.Password
		if keyPassword == nil {
			keyPassword = password
		}
		bag, err := makeShroudedKeyBag(o, e.PrivateKey, keyPassword)
		if err != nil {
			return nil, fmt.Errorf("pkcs12: entry %q: %w", e.Alias, err)
		}
		bag.Attributes = attrs
		keyBags = append(keyBags, bag)
	}

	certSafe, err := asn1.Marshal(certBags)
	if err != nil {
		return nil, err
	}
	encAlg, encCerts, err := encryptPBES2(o.Rand, password, certSafe, o.Iterations)
	if err != nil {
		return nil, err
	}
	encInfo, err := asn1.Marshal(encryptedData{
		EncryptedContentInfo: encryptedContentInfo{
			ContentType:                oidDataContentType,
			ContentEncryptionAlgorithm: encAlg,
			EncryptedContent:           encCerts,
		},
	})
	if err != nil {
		return nil, err
	}

	infos := []contentInfo{{ContentType: oidEncryptedDataContentType, Content: explicit(encInfo)}}

	if len(keyBags) > 0 {
		keySafe, err := asn1.Marshal(keyBags)
		if err != nil {
			return nil, err
		}
		data, err := asn1.Marshal(keySafe)
		if err != nil {
			return nil, err
		}
		infos = append(infos, contentInfo{ContentType: oidDataContentType, Content: explicit(data)})
	}

	authSafe, err := asn1.Marshal(infos)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(o.Rand, salt); err != nil {
		return nil, err
	}
	sum, err := computeMAC(oidSHA256, authSafe, salt, pw.bmp, o.Iterations)
	if err != nil {
		return nil, err
	}

	authSafeData, err := asn1.Marshal(authSafe)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(pfxPdu{
		Version:  3,
		AuthSafe: contentInfo{ContentType: oidDataContentType, Content: explicit(authSafeData)},
		MacData: macData{
			Mac: digestInfo{
				Algorithm: pkix.AlgorithmIdentifier{Algorithm: oidSHA256, Parameters: asn1.NullRawValue},
				Digest:    sum,
			},
			MacSalt:    salt,
			Iterations: o.Iterations,
		},
	})
}

// entryAttributes builds friendlyName and, for key entries, a localKeyId
// derived from the leaf certificate the way OpenSSL does.
func entryAttributes(e Entry) ([]pkcs12Attribute, error) {
	var attrs []pkcs12Attribute

	if e.Alias != "" {
		name, err := asn1.Marshal(asn1.RawValue{Tag: asn1.TagBMPString, Bytes: encodeBMPString(e.Alias)})
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, pkcs12Attribute{ID: oidFriendlyName, Value: attrSet(name)})
	}

	if e.PrivateKey != nil {
		sum := sha1.Sum(e.Certificates[0].Raw)
		id, err := asn1.Marshal(sum[:])
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, pkcs12Attribute{ID: oidLocalKeyID, Value: attrSet(id)})
	}

	return attrs, nil
}

func attrSet(der []byte) asn1.RawValue {
	return asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSet, IsCompound: true, Bytes: der}
}

func makeCertBag(cert *x509.Certificate) (safeBag, error) {
	if cert == nil {
		return safeBag{}, errors.New("pkcs12: nil certificate")
	}
	der, err := asn1.Marshal(certBag{ID: oidCertTypeX509Cert, Data: cert.Raw})
	if err != nil {
		return safeBag{}, err
	}
	return safeBag{ID: oidCertBag, Value: explicit(der)}, nil
}

func makeShroudedKeyBag(o EncodeOptions, key crypto.PrivateKey, password []byte) (safeBag, error) {
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return safeBag{}, err
	}
	defer clear(pkcs8)

	alg, ct, err := encryptPBES2(o.Rand, password, pkcs8, o.Iterations)
	if err != nil {
		return safeBag{}, err
	}
	der, err := asn1.Marshal(encryptedPrivateKeyInfo{AlgorithmIdentifier: alg, EncryptedData: ct})
	if err != nil {
		return safeBag{}, err
	}
	return safeBag{ID: oidPKCS8ShroudedKeyBag, Value: explicit(der)}, nil
}

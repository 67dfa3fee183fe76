package pkcs12

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
)

// maxNesting bounds safeContentsBag recursion.
const maxNesting = 8

// BagType identifies the kind of a safe bag.
type BagType int

const (
	UnknownBag BagType = iota
	KeyBag
	ShroudedKeyBag
	CertBag
	CRLBag
	SecretBag
)

func (t BagType) String() string {
	switch t {
	case KeyBag:
		return "keyBag"
	case ShroudedKeyBag:
		return "pkcs8ShroudedKeyBag"
	case CertBag:
		return "certBag"
	case CRLBag:
		return "crlBag"
	case SecretBag:
		return "secretBag"
	default:
		return "unknownBag"
	}
}

// HoldsPrivateKey reports whether bags of this type carry a private key.
func (t BagType) HoldsPrivateKey() bool {
	return t == KeyBag || t == ShroudedKeyBag
}

// Bag is a single safe bag together with its decoded attributes. Key bags
// stay encrypted until PrivateKey is called.
type Bag struct {
	Type         BagType
	FriendlyName string
	LocalKeyID   []byte

	oid   asn1.ObjectIdentifier
	value []byte
}

// Container is a decoded PFX whose integrity has been verified.
type Container struct {
	Bags []*Bag
}

// Decode parses a PFX, verifies its MAC and decrypts any encrypted safe
// contents with password. Private keys are left encrypted.
func Decode(data, password []byte) (*Container, error) {
	var pfx pfxPdu
	if err := unmarshalExact(data, &pfx); err != nil {
		return nil, malformed("PFX", err)
	}
	if pfx.Version != 3 {
		return nil, malformed(fmt.Sprintf("PFX version %d", pfx.Version), nil)
	}

	switch ct := pfx.AuthSafe.ContentType; {
	case ct.Equal(oidSignedDataContentType):
		return nil, &AlgorithmError{Kind: ErrUnsupportedIntegrity, OID: ct}
	case !ct.Equal(oidDataContentType):
		return nil, malformed(fmt.Sprintf("authSafe content type %s", ct), nil)
	}

	var authSafe []byte
	if err := unmarshalExact(pfx.AuthSafe.Content.Bytes, &authSafe); err != nil {
		return nil, malformed("authSafe", err)
	}

	pw, err := newSecret(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncorrectPassword, err)
	}
	defer pw.zero()

	if len(pfx.MacData.Mac.Algorithm.Algorithm) > 0 {
		err := verifyMAC(&pfx.MacData, authSafe, pw.bmp)
		if errors.Is(err, ErrIncorrectPassword) && len(password) == 0 {
			// Some encoders key an empty password without the terminator.
			if verifyMAC(&pfx.MacData, authSafe, nil) == nil {
				pw.bmp, err = nil, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}

	var infos []contentInfo
	if err := unmarshalExact(authSafe, &infos); err != nil {
		return nil, malformed("authenticated safe", err)
	}

	c := &Container{}
	for _, info := range infos {
		switch {
		case info.ContentType.Equal(oidDataContentType):
			var safe []byte
			if err := unmarshalExact(info.Content.Bytes, &safe); err != nil {
				return nil, malformed("safe contents", err)
			}
			if err := c.addSafeContents(safe, 0); err != nil {
				return nil, err
			}

		case info.ContentType.Equal(oidEncryptedDataContentType):
			var ed encryptedData
			if err := unmarshalExact(info.Content.Bytes, &ed); err != nil {
				return nil, malformed("encrypted data", err)
			}
			eci := ed.EncryptedContentInfo
			safe, err := decrypt(eci.ContentEncryptionAlgorithm, pw, eci.EncryptedContent)
			if err != nil {
				return nil, err
			}
			// Garbage that survived the padding check means a wrong password.
			if err := c.addSafeContents(safe, 0); err != nil {
				if errors.Is(err, ErrMalformed) {
					return nil, ErrDecryption
				}
				return nil, err
			}

		default:
			return nil, &AlgorithmError{Kind: ErrUnsupportedEncryption, OID: info.ContentType}
		}
	}

	return c, nil
}

func (c *Container) addSafeContents(der []byte, depth int) error {
	var bags []safeBag
	if err := unmarshalExact(der, &bags); err != nil {
		return malformed("safe bags", err)
	}

	for i := range bags {
		sb := &bags[i]
		if sb.ID.Equal(oidSafeContentsBag) {
			if depth >= maxNesting {
				return malformed("safe contents nested too deeply", nil)
			}
			if err := c.addSafeContents(sb.Value.Bytes, depth+1); err != nil {
				return err
			}
			continue
		}

		bag := &Bag{Type: bagType(sb.ID), oid: sb.ID, value: sb.Value.Bytes}
		for _, attr := range sb.Attributes {
			switch {
			case attr.ID.Equal(oidFriendlyName):
				var v asn1.RawValue
				if _, err := asn1.Unmarshal(attr.Value.Bytes, &v); err != nil {
					return malformed("friendlyName attribute", err)
				}
				if v.Tag != asn1.TagBMPString {
					return malformed(fmt.Sprintf("friendlyName has tag %d", v.Tag), nil)
				}
				name, err := decodeBMPString(v.Bytes)
				if err != nil {
					return malformed("friendlyName attribute", err)
				}
				bag.FriendlyName = name

			case attr.ID.Equal(oidLocalKeyID):
				var id []byte
				if _, err := asn1.Unmarshal(attr.Value.Bytes, &id); err != nil {
					return malformed("localKeyId attribute", err)
				}
				bag.LocalKeyID = id
			}
		}
		c.Bags = append(c.Bags, bag)
	}
	return nil
}

func bagType(oid asn1.ObjectIdentifier) BagType {
	switch {
	case oid.Equal(oidKeyBag):
		return KeyBag
	case oid.Equal(oidPKCS8ShroudedKeyBag):
		return ShroudedKeyBag
	case oid.Equal(oidCertBag):
		return CertBag
	case oid.Equal(oidCRLBag):
		return CRLBag
	case oid.Equal(oidSecretBag):
		return SecretBag
	default:
		return UnknownBag
	}
}

// Certificate parses the X.509 certificate held by a certBag.
func (b *Bag) Certificate() (*x509.Certificate, error) {
	if b.Type != CertBag {
		return nil, fmt.Errorf("pkcs12: %s does not hold a certificate", b.Type)
	}

	var cb certBag
	if err := unmarshalExact(b.value, &cb); err != nil {
		return nil, malformed("certBag", err)
	}
	if !cb.ID.Equal(oidCertTypeX509Cert) {
		return nil, fmt.Errorf("pkcs12: unsupported certificate type %s", cb.ID)
	}

	cert, err := x509.ParseCertificate(cb.Data)
	if err != nil {
		return nil, malformed("certificate", err)
	}
	return cert, nil
}

// PrivateKey unlocks the key held by a keyBag or pkcs8ShroudedKeyBag.
// password is ignored for unencrypted key bags.
func (b *Bag) PrivateKey(password []byte) (crypto.PrivateKey, error) {
	switch b.Type {
	case KeyBag:
		key, err := x509.ParsePKCS8PrivateKey(b.value)
		if err != nil {
			return nil, malformed("private key", err)
		}
		return key, nil

	case ShroudedKeyBag:
		var info encryptedPrivateKeyInfo
		if err := unmarshalExact(b.value, &info); err != nil {
			return nil, malformed("encrypted private key", err)
		}

		pw, err := newSecret(password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		defer pw.zero()

		plain, err := decrypt(info.AlgorithmIdentifier, pw, info.EncryptedData)
		if errors.Is(err, ErrDecryption) && len(password) == 0 {
			pw.bmp = nil
			plain, err = decrypt(info.AlgorithmIdentifier, pw, info.EncryptedData)
		}
		if err != nil {
			return nil, err
		}
		defer clear(plain)

		key, err := x509.ParsePKCS8PrivateKey(plain)
		if err != nil {
			return nil, ErrDecryption
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrNotPrivateKey, b.Type)
	}
}

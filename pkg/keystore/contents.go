package keystore

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	legacy "golang.org/x/crypto/pkcs12"

	"mercator-hq/keyport/pkg/security/pkcs12"
)

// keyItem is a private key entry whose key may still be encrypted.
type keyItem struct {
	alias      string
	localKeyID []byte
	unlock     func(password []byte) (crypto.PrivateKey, error)
}

type certItem struct {
	alias      string
	localKeyID []byte
	cert       *x509.Certificate
}

// contents is the decoded, integrity-checked body of a keystore.
type contents struct {
	keys  []keyItem
	certs []certItem
}

// parseContents decodes data with the keystore password. When the container
// uses a cipher only the legacy decoder understands and allowLegacy is set,
// it falls back to golang.org/x/crypto/pkcs12, which requires a single
// password for the container and every key.
func parseContents(data, password []byte, allowLegacy bool) (*contents, error) {
	c, err := pkcs12.Decode(data, password)
	if err != nil {
		if allowLegacy && errors.Is(err, pkcs12.ErrUnsupportedEncryption) {
			if lc, lerr := parseLegacy(data, password); lerr == nil {
				return lc, nil
			}
		}
		return nil, err
	}

	out := &contents{}
	for _, bag := range c.Bags {
		switch {
		case bag.Type.HoldsPrivateKey():
			out.keys = append(out.keys, keyItem{
				alias:      bag.FriendlyName,
				localKeyID: bag.LocalKeyID,
				unlock:     bag.PrivateKey,
			})
		case bag.Type == pkcs12.CertBag:
			cert, err := bag.Certificate()
			if err != nil {
				return nil, err
			}
			out.certs = append(out.certs, certItem{
				alias:      bag.FriendlyName,
				localKeyID: bag.LocalKeyID,
				cert:       cert,
			})
		}
	}
	return out, nil
}

func parseLegacy(data, password []byte) (*contents, error) {
	blocks, err := legacy.ToPEM(data, string(password))
	if err != nil {
		return nil, err
	}

	out := &contents{}
	for _, block := range blocks {
		alias := block.Headers["friendlyName"]
		id, _ := hex.DecodeString(block.Headers["localKeyId"])

		switch block.Type {
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", pkcs12.ErrMalformed, err)
			}
			out.certs = append(out.certs, certItem{alias: alias, localKeyID: id, cert: cert})

		case "PRIVATE KEY":
			key, err := parseLegacyKey(block)
			if err != nil {
				return nil, err
			}
			out.keys = append(out.keys, keyItem{
				alias:      alias,
				localKeyID: id,
				unlock:     func([]byte) (crypto.PrivateKey, error) { return key, nil },
			})
		}
	}
	return out, nil
}

func parseLegacyKey(block *pem.Block) (crypto.PrivateKey, error) {
	defer clear(block.Bytes)
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unrecognised private key encoding", pkcs12.ErrMalformed)
}

// resolveAlias finds the alias as stored in the keystore. An exact match wins;
// otherwise the first case-insensitive match is used, since some keystore
// writers lower-case aliases.
func (c *contents) resolveAlias(alias string) (string, bool) {
	for _, k := range c.keys {
		if k.alias == alias {
			return k.alias, true
		}
	}
	for _, ci := range c.certs {
		if ci.alias == alias {
			return ci.alias, true
		}
	}
	for _, k := range c.keys {
		if k.alias != "" && strings.EqualFold(k.alias, alias) {
			return k.alias, true
		}
	}
	for _, ci := range c.certs {
		if ci.alias != "" && strings.EqualFold(ci.alias, alias) {
			return ci.alias, true
		}
	}
	return "", false
}

func (c *contents) key(alias string) (keyItem, bool) {
	for _, k := range c.keys {
		if k.alias == alias {
			return k, true
		}
	}
	return keyItem{}, false
}

// leafFor picks the certificate belonging to a key entry: by localKeyId,
// then by public key, then by alias.
func (c *contents) leafFor(k keyItem, key crypto.PrivateKey) *x509.Certificate {
	if len(k.localKeyID) > 0 {
		for _, ci := range c.certs {
			if bytes.Equal(ci.localKeyID, k.localKeyID) {
				return ci.cert
			}
		}
	}
	if signer, ok := key.(crypto.Signer); ok {
		pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
		if ok {
			for _, ci := range c.certs {
				if pub.Equal(ci.cert.PublicKey) {
					return ci.cert
				}
			}
		}
	}
	if k.alias != "" {
		for _, ci := range c.certs {
			if ci.alias == k.alias {
				return ci.cert
			}
		}
	}
	return nil
}

// chainFrom orders the issuers of leaf found in the keystore, stopping at a
// self-signed certificate or when no issuer is present.
func (c *contents) chainFrom(leaf *x509.Certificate) []*x509.Certificate {
	chain := []*x509.Certificate{leaf}
	used := map[*x509.Certificate]bool{leaf: true}

	for cur := leaf; !bytes.Equal(cur.RawIssuer, cur.RawSubject); {
		issuer := c.issuerOf(cur, used)
		if issuer == nil {
			break
		}
		chain = append(chain, issuer)
		used[issuer] = true
		cur = issuer
	}
	return chain
}

func (c *contents) issuerOf(cert *x509.Certificate, used map[*x509.Certificate]bool) *x509.Certificate {
	var candidate *x509.Certificate
	for _, ci := range c.certs {
		if used[ci.cert] || !bytes.Equal(ci.cert.RawSubject, cert.RawIssuer) {
			continue
		}
		if cert.CheckSignatureFrom(ci.cert) == nil {
			return ci.cert
		}
		if candidate == nil {
			candidate = ci.cert
		}
	}
	return candidate
}

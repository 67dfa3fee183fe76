/*
Package pkcs12 reads and writes PKCS#12 (PFX) keystore containers.

Unlike single-password decoders, the container password and the password
protecting each private key are kept apart: the container password verifies
the MAC and decrypts encrypted safe contents, while a key bag is only
unlocked when its entry password is supplied.

# Decoding

	c, err := pkcs12.Decode(data, []byte("changeit"))
	if err != nil {
		return err
	}

	for _, bag := range c.Bags {
		if bag.Type == pkcs12.ShroudedKeyBag && bag.FriendlyName == "server" {
			key, err := bag.PrivateKey([]byte("entry-secret"))
			...
		}
	}

# Supported algorithms

Integrity: HMAC with SHA-1, SHA-224, SHA-256, SHA-384 or SHA-512 keyed by the
PKCS#12 key derivation function.

Encryption: pbeWithSHAAnd3-KeyTripleDES-CBC, pbeWithSHAAnd2-KeyTripleDES-CBC and
PBES2 (PBKDF2 with AES-CBC or DES-EDE3-CBC). RC2 and RC4 based schemes are
reported as ErrUnsupportedEncryption.

# Encoding

Encode writes containers the way current OpenSSL does by default: PBES2 with
AES-256-CBC and PBKDF2-HMAC-SHA256 for both safe contents and key bags, plus an
HMAC-SHA256 integrity MAC.
*/
package pkcs12

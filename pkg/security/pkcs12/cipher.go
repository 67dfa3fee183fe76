package pkcs12

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// maxIterations bounds the work a hostile container can demand.
const maxIterations = 1 << 24

type blockCipher struct {
	keySize  int
	newBlock func(key []byte) (cipher.Block, error)
}

var pbes2Ciphers = map[string]blockCipher{
	oidAES128CBC.String():  {16, aes.NewCipher},
	oidAES192CBC.String():  {24, aes.NewCipher},
	oidAES256CBC.String():  {32, aes.NewCipher},
	oidDESEDE3CBC.String(): {24, des.NewTripleDESCipher},
}

var pbkdf2PRFs = map[string]func() hash.Hash{
	oidHMACWithSHA1.String():   digests[oidSHA1.String()].new,
	oidHMACWithSHA224.String(): digests[oidSHA224.String()].new,
	oidHMACWithSHA256.String(): digests[oidSHA256.String()].new,
	oidHMACWithSHA384.String(): digests[oidSHA384.String()].new,
	oidHMACWithSHA512.String(): digests[oidSHA512.String()].new,
}

// decrypt reverses a password based encryption scheme. A padding failure is
// reported as ErrDecryption since that is what a wrong password produces.
func decrypt(alg pkix.AlgorithmIdentifier, pw *secret, ciphertext []byte) ([]byte, error) {
	mode, err := decrypter(alg, pw)
	if err != nil {
		return nil, err
	}

	bs := mode.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, malformed("encrypted content is not a whole number of blocks", nil)
	}

	plain := make([]byte, len(ciphertext))
	mode.CryptBlocks(plain, ciphertext)

	n := int(plain[len(plain)-1])
	if n == 0 || n > bs || n > len(plain) {
		clear(plain)
		return nil, ErrDecryption
	}
	for _, b := range plain[len(plain)-n:] {
		if int(b) != n {
			clear(plain)
			return nil, ErrDecryption
		}
	}
	return plain[:len(plain)-n], nil
}

func decrypter(alg pkix.AlgorithmIdentifier, pw *secret) (cipher.BlockMode, error) {
	switch {
	case alg.Algorithm.Equal(oidPBEWithSHAAnd3KeyTripleDESCBC):
		return pkcs12PBE(alg, pw, 24)
	case alg.Algorithm.Equal(oidPBEWithSHAAnd2KeyTripleDESCBC):
		return pkcs12PBE(alg, pw, 16)
	case alg.Algorithm.Equal(oidPBES2):
		return pbes2(alg, pw)
	default:
		return nil, &AlgorithmError{Kind: ErrUnsupportedEncryption, OID: alg.Algorithm}
	}
}

func pkcs12PBE(alg pkix.AlgorithmIdentifier, pw *secret, keySize int) (cipher.BlockMode, error) {
	var params pbeParams
	if err := unmarshalExact(alg.Parameters.FullBytes, &params); err != nil {
		return nil, malformed("PBE parameters", err)
	}
	if params.Iterations < 1 || params.Iterations > maxIterations {
		return nil, malformed(fmt.Sprintf("PBE iteration count %d", params.Iterations), nil)
	}

	sha1 := digests[oidSHA1.String()]
	derived := deriveKey(sha1, pw.bmp, params.Salt, params.Iterations, kdfIDKey, keySize)
	defer clear(derived)
	key := derived
	if keySize == 16 {
		// Two-key triple DES: K1 K2 K1.
		key = make([]byte, 0, 24)
		key = append(append(key, derived...), derived[:8]...)
		defer clear(key)
	}
	iv := deriveKey(sha1, pw.bmp, params.Salt, params.Iterations, kdfIDIV, des.BlockSize)

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

func pbes2(alg pkix.AlgorithmIdentifier, pw *secret) (cipher.BlockMode, error) {
	var params pbes2Params
	if err := unmarshalExact(alg.Parameters.FullBytes, &params); err != nil {
		return nil, malformed("PBES2 parameters", err)
	}
	if !params.KeyDerivationFunc.Algorithm.Equal(oidPBKDF2) {
		return nil, &AlgorithmError{Kind: ErrUnsupportedEncryption, OID: params.KeyDerivationFunc.Algorithm}
	}

	var kdf pbkdf2Params
	if err := unmarshalExact(params.KeyDerivationFunc.Parameters.FullBytes, &kdf); err != nil {
		return nil, malformed("PBKDF2 parameters", err)
	}
	if kdf.Salt.Class != asn1.ClassUniversal || kdf.Salt.Tag != asn1.TagOctetString {
		return nil, malformed("PBKDF2 salt is not an octet string", nil)
	}
	if kdf.Iterations < 1 || kdf.Iterations > maxIterations {
		return nil, malformed(fmt.Sprintf("PBKDF2 iteration count %d", kdf.Iterations), nil)
	}

	prf := digests[oidSHA1.String()].new
	if len(kdf.PRF.Algorithm) > 0 {
		var ok bool
		if prf, ok = pbkdf2PRFs[kdf.PRF.Algorithm.String()]; !ok {
			return nil, &AlgorithmError{Kind: ErrUnsupportedEncryption, OID: kdf.PRF.Algorithm}
		}
	}

	bc, ok := pbes2Ciphers[params.EncryptionScheme.Algorithm.String()]
	if !ok {
		return nil, &AlgorithmError{Kind: ErrUnsupportedEncryption, OID: params.EncryptionScheme.Algorithm}
	}
	if kdf.KeyLength != 0 && kdf.KeyLength != bc.keySize {
		return nil, malformed(fmt.Sprintf("PBKDF2 key length %d", kdf.KeyLength), nil)
	}

	var iv []byte
	if err := unmarshalExact(params.EncryptionScheme.Parameters.FullBytes, &iv); err != nil {
		return nil, malformed("cipher IV", err)
	}

	key := pbkdf2.Key(pw.raw, kdf.Salt.Bytes, kdf.Iterations, bc.keySize, prf)
	defer clear(key)

	block, err := bc.newBlock(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, malformed(fmt.Sprintf("IV length %d", len(iv)), nil)
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

// encryptPBES2 encrypts plaintext with PBES2 (PBKDF2-HMAC-SHA256, AES-256-CBC)
// and returns the algorithm identifier describing it.
func encryptPBES2(rand io.Reader, password, plaintext []byte, iterations int) (pkix.AlgorithmIdentifier, []byte, error) {
	salt := make([]byte, 16)
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand, salt); err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}
	if _, err := io.ReadFull(rand, iv); err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}

	kdfParams, err := asn1.Marshal(pbkdf2Params{
		Salt:       asn1.RawValue{Tag: asn1.TagOctetString, Bytes: salt},
		Iterations: iterations,
		KeyLength:  32,
		PRF:        pkix.AlgorithmIdentifier{Algorithm: oidHMACWithSHA256, Parameters: asn1.NullRawValue},
	})
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}
	ivParams, err := asn1.Marshal(iv)
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}
	schemeParams, err := asn1.Marshal(pbes2Params{
		KeyDerivationFunc: pkix.AlgorithmIdentifier{Algorithm: oidPBKDF2, Parameters: asn1.RawValue{FullBytes: kdfParams}},
		EncryptionScheme:  pkix.AlgorithmIdentifier{Algorithm: oidAES256CBC, Parameters: asn1.RawValue{FullBytes: ivParams}},
	})
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}

	key := pbkdf2.Key(password, salt, iterations, 32, digests[oidSHA256.String()].new)
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}

	n := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(bytes.Clone(plaintext), bytes.Repeat([]byte{byte(n)}, n)...)
	defer clear(padded)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	alg := pkix.AlgorithmIdentifier{Algorithm: oidPBES2, Parameters: asn1.RawValue{FullBytes: schemeParams}}
	return alg, out, nil
}

// unmarshalExact parses der into out and rejects trailing data.
func unmarshalExact(der []byte, out any) error {
	rest, err := asn1.Unmarshal(der, out)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%d bytes of trailing data", len(rest))
	}
	return nil
}

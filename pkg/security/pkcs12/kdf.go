package pkcs12

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"errors"
	"hash"
	"unicode/utf16"
	"unicode/utf8"
)

// Diversifier IDs for the PKCS#12 key derivation function (RFC 7292, B.3).
const (
	kdfIDKey byte = 1
	kdfIDIV  byte = 2
	kdfIDMAC byte = 3
)

type digest struct {
	new       func() hash.Hash
	size      int
	blockSize int
}

var digests = map[string]digest{
	oidSHA1.String():   {sha1.New, sha1.Size, sha1.BlockSize},
	oidSHA224.String(): {sha256.New224, sha256.Size224, sha256.BlockSize},
	oidSHA256.String(): {sha256.New, sha256.Size, sha256.BlockSize},
	oidSHA384.String(): {sha512.New384, sha512.Size384, sha512.BlockSize},
	oidSHA512.String(): {sha512.New, sha512.Size, sha512.BlockSize},
}

func digestFor(oid asn1.ObjectIdentifier) (digest, bool) {
	d, ok := digests[oid.String()]
	return d, ok
}

// deriveKey implements the PKCS#12 key derivation function from RFC 7292
// appendix B.2. password must already be BMP encoded.
func deriveKey(d digest, password, salt []byte, iterations int, id byte, size int) []byte {
	u, v := d.size, d.blockSize

	D := make([]byte, v)
	for i := range D {
		D[i] = id
	}

	S := fillWithRepeats(salt, v)
	P := fillWithRepeats(password, v)
	I := make([]byte, 0, len(S)+len(P))
	I = append(I, S...)
	I = append(I, P...)
	defer clear(I)

	c := (size + u - 1) / u
	A := make([]byte, 0, c*u)
	B := make([]byte, v)

	for i := 0; i < c; i++ {
		h := d.new()
		h.Write(D)
		h.Write(I)
		Ai := h.Sum(nil)
		for r := 1; r < iterations; r++ {
			h.Reset()
			h.Write(Ai)
			Ai = h.Sum(Ai[:0])
		}
		A = append(A, Ai...)

		if i == c-1 {
			break
		}

		// I_j = (I_j + B + 1) mod 2^(8v) for every v-byte block of I.
		for j := range B {
			B[j] = Ai[j%u]
		}
		for j := 0; j < len(I); j += v {
			block := I[j : j+v]
			carry := 1
			for k := v - 1; k >= 0; k-- {
				sum := int(block[k]) + int(B[k]) + carry
				block[k] = byte(sum)
				carry = sum >> 8
			}
		}
	}

	return A[:size]
}

// fillWithRepeats concatenates copies of pattern up to the next multiple of v.
func fillWithRepeats(pattern []byte, v int) []byte {
	if len(pattern) == 0 {
		return nil
	}
	n := v * ((len(pattern) + v - 1) / v)
	out := make([]byte, n)
	for i := 0; i < n; i += len(pattern) {
		copy(out[i:], pattern)
	}
	return out
}

var errInvalidPassword = errors.New("password is not valid UTF-8")

// bmpPassword encodes a UTF-8 password as a NUL terminated big-endian
// UTF-16 string, the form the PKCS#12 KDF expects.
func bmpPassword(password []byte) ([]byte, error) {
	out := make([]byte, 0, 2*len(password)+2)
	for len(password) > 0 {
		r, size := utf8.DecodeRune(password)
		if r == utf8.RuneError && size <= 1 {
			clear(out)
			return nil, errInvalidPassword
		}
		password = password[size:]
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			out = append(out, byte(r1>>8), byte(r1), byte(r2>>8), byte(r2))
			continue
		}
		out = append(out, byte(r>>8), byte(r))
	}
	return append(out, 0, 0), nil
}

// decodeBMPString decodes a big-endian UTF-16 string.
func decodeBMPString(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errors.New("odd-length BMP string")
	}
	if n := len(b); n >= 2 && b[n-1] == 0 && b[n-2] == 0 {
		b = b[:n-2]
	}
	s := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		s = append(s, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(s)), nil
}

func encodeBMPString(s string) []byte {
	u := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2*len(u))
	for _, c := range u {
		out = append(out, byte(c>>8), byte(c))
	}
	return out
}

// secret carries both encodings of a password: the raw UTF-8 bytes used by
// PBES2 and the BMP form used by the PKCS#12 KDF.
type secret struct {
	raw []byte
	bmp []byte
}

func newSecret(password []byte) (*secret, error) {
	bmp, err := bmpPassword(password)
	if err != nil {
		return nil, err
	}
	return &secret{raw: password, bmp: bmp}, nil
}

// zero wipes the derived BMP copy. raw belongs to the caller.
func (s *secret) zero() {
	clear(s.bmp)
}

package secrets

import (
	"crypto/subtle"
	"log/slog"
)

const redacted = "[REDACTED]"

// Value is secret material that can be wiped from memory.
type Value []byte

// NewValue copies s into a Value.
func NewValue(s string) Value {
	return Value(s)
}

// Bytes exposes the underlying buffer. Callers must not retain it past Zero.
func (v Value) Bytes() []byte {
	return v
}

// Len returns the length of the secret in bytes.
func (v Value) Len() int {
	return len(v)
}

// Equal compares two values in constant time.
func (v Value) Equal(other Value) bool {
	return subtle.ConstantTimeCompare(v, other) == 1
}

// Zero overwrites the secret with zeros.
func (v Value) Zero() {
	clear(v)
}

// Clone returns an independent copy.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	copy(out, v)
	return out
}

func (v Value) String() string {
	return redacted
}

func (v Value) GoString() string {
	return redacted
}

// LogValue implements slog.LogValuer.
func (v Value) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

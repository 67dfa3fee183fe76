package logging

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
)

// Redacted replaces every masked value.
const Redacted = "[REDACTED]"

// minTrackedLen is the shortest tracked secret masked inside larger strings.
// Shorter secrets are only masked when they make up the whole value.
const minTrackedLen = 4

// Redactor masks secrets in log fields.
type Redactor struct {
	patterns []*redactPattern

	mu      sync.RWMutex
	tracked [][]byte
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternPassword    = "password"
	PatternBearerToken = "bearer_token"
	PatternPrivateKey  = "private_key"
)

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	r.addDefaultPatterns()
	return r
}

func (r *Redactor) addDefaultPatterns() {
	patterns := []struct {
		name        string
		regex       string
		replacement string
	}{
		{
			// key=value and key: value pairs, as in a properties file echoed into an error
			name:        PatternPassword,
			regex:       `(?i)((?:password|passwd|pwd)\s*[:=]\s*)[^\s,;]+`,
			replacement: "${1}" + Redacted,
		},
		{
			name:        PatternBearerToken,
			regex:       `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`,
			replacement: "Bearer " + Redacted,
		},
		{
			name:        PatternPrivateKey,
			regex:       `-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`,
			replacement: Redacted,
		},
	}

	for _, p := range patterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
}

// Track registers a secret value to be masked. The value is copied into a
// buffer that Forget zeroes.
func (r *Redactor) Track(secret []byte) {
	if len(secret) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tracked {
		if bytes.Equal(existing, secret) {
			return
		}
	}
	r.tracked = append(r.tracked, bytes.Clone(secret))
}

// Forget zeroes and drops every tracked secret. Pattern redaction stays in
// effect. A nil Redactor is a no-op.
func (r *Redactor) Forget() {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, secret := range r.tracked {
		clear(secret)
	}
	r.tracked = nil
}

// RedactString masks tracked secrets and pattern matches in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	r.mu.RLock()
	if len(r.tracked) > 0 {
		b := []byte(value)
		masked := false
		for _, secret := range r.tracked {
			if bytes.Equal(b, secret) {
				r.mu.RUnlock()
				return Redacted
			}
			if len(secret) >= minTrackedLen && bytes.Contains(b, secret) {
				b = bytes.ReplaceAll(b, secret, []byte(Redacted))
				masked = true
			}
		}
		if masked {
			value = string(b)
		}
	}
	r.mu.RUnlock()

	for _, pattern := range r.patterns {
		value = pattern.regex.ReplaceAllString(value, pattern.replacement)
	}
	return value
}

// IsSensitiveKey reports whether an attribute key names secret material.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"authorization",
		"private_key", "privatekey",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

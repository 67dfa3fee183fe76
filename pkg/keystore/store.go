package keystore

import (
	"context"
	"crypto/x509"
	"sort"
	"strings"
)

// EntryKind distinguishes key entries from trusted certificates.
type EntryKind int

const (
	PrivateKeyEntry EntryKind = iota + 1
	TrustedCertificateEntry
)

func (k EntryKind) String() string {
	switch k {
	case PrivateKeyEntry:
		return "PrivateKeyEntry"
	case TrustedCertificateEntry:
		return "trustedCertEntry"
	default:
		return "unknown"
	}
}

// Entry describes one aliased keystore entry. Private keys stay locked.
type Entry struct {
	Alias string
	Kind  EntryKind

	// Chain is the entry's certificate chain, leaf first. It is empty for a
	// key entry whose certificate is missing.
	Chain []*x509.Certificate
}

// Store is the listing of a keystore's entries.
type Store struct {
	Path    string
	entries []Entry
}

// Aliases returns the entry aliases in sorted order.
func (s *Store) Aliases() []string {
	aliases := make([]string, len(s.entries))
	for i, e := range s.entries {
		aliases[i] = e.Alias
	}
	return aliases
}

// Entries returns the entries sorted by alias.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry looks up an alias, exact match first then case-insensitive.
func (s *Store) Entry(alias string) (Entry, bool) {
	for _, e := range s.entries {
		if e.Alias == alias {
			return e, true
		}
	}
	for _, e := range s.entries {
		if strings.EqualFold(e.Alias, alias) {
			return e, true
		}
	}
	return Entry{}, false
}

// Open lists the entries of the keystore at path with the default Decoder.
func Open(ctx context.Context, path string, password []byte) (*Store, error) {
	var d Decoder
	return d.List(ctx, path, password)
}

// List verifies the keystore at path with password and lists its aliased
// entries without unlocking any private key.
func (d *Decoder) List(ctx context.Context, path string, password []byte) (*Store, error) {
	fail := func(kind, err error) (*Store, error) {
		return nil, &DecodeError{Kind: kind, Path: path, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(ErrCanceled, err)
	}

	raw, err := d.read(path)
	if err != nil {
		return fail(ErrFileNotReadable, err)
	}
	defer clear(raw)

	c, err := parseContents(raw, password, true)
	if err != nil {
		return fail(containerErrorKind(err), err)
	}

	s := &Store{Path: path}
	keyAliases := map[string]bool{}
	for _, k := range c.keys {
		if k.alias == "" || keyAliases[k.alias] {
			continue
		}
		keyAliases[k.alias] = true

		e := Entry{Alias: k.alias, Kind: PrivateKeyEntry}
		if leaf := c.leafFor(k, nil); leaf != nil {
			e.Chain = c.chainFrom(leaf)
		}
		s.entries = append(s.entries, e)
	}

	seen := map[string]bool{}
	for _, ci := range c.certs {
		if ci.alias == "" || keyAliases[ci.alias] || seen[ci.alias] {
			continue
		}
		seen[ci.alias] = true
		s.entries = append(s.entries, Entry{
			Alias: ci.alias,
			Kind:  TrustedCertificateEntry,
			Chain: []*x509.Certificate{ci.cert},
		})
	}

	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].Alias < s.entries[j].Alias })
	return s, nil
}

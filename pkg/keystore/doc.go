// Package keystore extracts a server identity from a password-protected
// PKCS#12 keystore.
//
// A keystore is addressed by Credentials: the file path, the keystore
// password that guards the container's integrity and certificate safe, the
// alias of the entry to load and the entry password that unlocks its private
// key. The two passwords may differ, as they commonly do in keystores written
// by Java tooling.
//
//	data, err := keystore.Decode(ctx, creds)
//	if errors.Is(err, keystore.ErrWrongEntryPassword) {
//	    ...
//	}
//
// Every failure is a *DecodeError that names the file and alias and matches
// exactly one of the package sentinels with errors.Is. Password values never
// appear in errors.
package keystore

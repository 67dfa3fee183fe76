// keyport serves HTTPS with a certificate and private key read from a
// password-protected PKCS#12 keystore.
//
// Startup is fail-fast: configuration, keystore and TLS problems are reported
// in one line naming the failing stage and the process exits with status 1.
//
// Usage:
//
//	# Create a development keystore
//	keyport keystore generate keystore.p12 --alias server --host localhost
//
//	# Serve with the embedded default configuration
//	KEYPORT_SECRET_KEYSTORE_PASSWORD=... KEYPORT_SECRET_ENTRY_PASSWORD=... keyport serve
//
//	# Serve with configuration from a directory
//	keyport serve --resources ./config --config application.properties
//
//	# List the entries of a keystore
//	keyport keystore inspect keystore.p12
package main

import "os"

func main() {
	os.Exit(Execute())
}

package main

import (
	"github.com/spf13/cobra"
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage PKCS#12 keystores",
	Long: `Manage the PKCS#12 keystores keyport serves from.

Subcommands:
  inspect  - List entries and certificate details
  generate - Create a keystore with a self-signed identity for testing

Passwords are read from the environment variables named by the
--password-env and --entry-password-env flags, or prompted for on the
terminal.

Examples:
  # List the entries of a keystore
  keyport keystore inspect keystore.p12

  # Create a development keystore
  keyport keystore generate keystore.p12 --alias server --host localhost`,
}

func init() {
	rootCmd.AddCommand(keystoreCmd)
}

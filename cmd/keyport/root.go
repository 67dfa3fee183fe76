package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/keyport/pkg/cli"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "keyport",
	Short: "keyport - HTTPS server backed by a PKCS#12 keystore",
	Long: `keyport bootstraps a TLS-terminating HTTPS server whose certificate
material comes from a password-protected PKCS#12 keystore.

Startup reads the application properties, the security properties they
point to and the keystore they name, then builds the TLS context and binds
the listener. The first failing step stops startup with a one-line
diagnostic and exit status 1.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil && !cli.IsSilent(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/keyport/pkg/cli"
	"mercator-hq/keyport/pkg/keystore"
	securityTLS "mercator-hq/keyport/pkg/security/tls"
)

var inspectFlags struct {
	alias            string
	passwordEnv      string
	entryPasswordEnv string
	output           string
}

var keystoreInspectCmd = &cobra.Command{
	Use:   "inspect <keystore-file>",
	Short: "List keystore entries",
	Long: `List the entries of a PKCS#12 keystore.

For every entry the alias, entry type and certificate chain are shown:
subject, issuer, validity and public key algorithm. Private keys are not
unlocked unless --alias and --entry-password-env are both given, in which
case the entry password is verified as well.

Output formats:
  - text (default): Human-readable formatted output
  - json: JSON-formatted output for scripting

Examples:
  # Prompt for the keystore password
  keyport keystore inspect keystore.p12

  # Read the password from the environment and print JSON
  STORE_PASS=changeit keyport keystore inspect keystore.p12 --password-env STORE_PASS -o json

  # Check that an entry unlocks with its password
  keyport keystore inspect keystore.p12 --alias server \
    --password-env STORE_PASS --entry-password-env ENTRY_PASS`,
	Args: cobra.ExactArgs(1),
	RunE: inspectKeystore,
}

func init() {
	keystoreCmd.AddCommand(keystoreInspectCmd)

	keystoreInspectCmd.Flags().StringVar(&inspectFlags.alias, "alias", "", "show only this entry")
	keystoreInspectCmd.Flags().StringVar(&inspectFlags.passwordEnv, "password-env", "", "environment variable holding the keystore password")
	keystoreInspectCmd.Flags().StringVar(&inspectFlags.entryPasswordEnv, "entry-password-env", "", "environment variable holding the entry password")
	keystoreInspectCmd.Flags().StringVarP(&inspectFlags.output, "output", "o", "text", "output format: text, json")
}

// certificateView is the printed form of one chain certificate.
type certificateView struct {
	*securityTLS.CertificateInfo
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Warning         string `json:"warning,omitempty"`
}

// entryView is the printed form of one keystore entry.
type entryView struct {
	Alias    string            `json:"alias"`
	Type     string            `json:"type"`
	Chain    []certificateView `json:"chain"`
	Unlocked *bool             `json:"unlocked,omitempty"`
}

// inspectView is the printed form of a keystore.
type inspectView struct {
	Path    string      `json:"path"`
	Entries []entryView `json:"entries"`
}

func inspectKeystore(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(inspectFlags.output)
	if err != nil {
		return err
	}
	if inspectFlags.entryPasswordEnv != "" && inspectFlags.alias == "" {
		return cli.NewConfigError("entry-password-env", "requires --alias")
	}

	path := args[0]
	pw := &cli.PasswordSource{In: cmd.InOrStdin(), Prompt: cmd.ErrOrStderr()}

	storePass, err := pw.Read("Keystore password: ", inspectFlags.passwordEnv)
	if err != nil {
		return err
	}
	defer storePass.Zero()

	store, err := keystore.Open(cmd.Context(), path, storePass)
	if err != nil {
		return err
	}

	entries := store.Entries()
	if inspectFlags.alias != "" {
		e, ok := store.Entry(inspectFlags.alias)
		if !ok {
			return &keystore.DecodeError{Kind: keystore.ErrAliasNotFound, Path: path, Alias: inspectFlags.alias}
		}
		entries = []keystore.Entry{e}
	}

	view := inspectView{Path: path}
	now := time.Now()
	for _, e := range entries {
		ev := entryView{Alias: e.Alias, Type: e.Kind.String(), Chain: []certificateView{}}
		for _, cert := range e.Chain {
			days, warning := securityTLS.CheckCertificateExpiration(cert, 30, now)
			ev.Chain = append(ev.Chain, certificateView{
				CertificateInfo: securityTLS.ExtractCertificateInfo(cert),
				DaysUntilExpiry: days,
				Warning:         warning,
			})
		}
		view.Entries = append(view.Entries, ev)
	}

	if inspectFlags.entryPasswordEnv != "" {
		entryPass, err := pw.Read("Entry password: ", inspectFlags.entryPasswordEnv)
		if err != nil {
			return err
		}
		creds := keystore.Credentials{
			Path:             path,
			KeystorePassword: storePass.Clone(),
			Alias:            view.Entries[0].Alias,
			EntryPassword:    entryPass,
		}
		_, err = keystore.Decode(cmd.Context(), creds)
		creds.Zero()
		if err != nil {
			return err
		}
		unlocked := true
		view.Entries[0].Unlocked = &unlocked
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(cmd.OutOrStdout(), view)
	}
	return printInspectText(cmd.OutOrStdout(), view)
}

func printInspectText(w io.Writer, view inspectView) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Keystore: %s\n", view.Path)
	fmt.Fprintf(&b, "Entries: %d\n", len(view.Entries))

	for _, e := range view.Entries {
		fmt.Fprintf(&b, "\nAlias: %s\n", e.Alias)
		fmt.Fprintf(&b, "  Type: %s\n", e.Type)
		if e.Unlocked != nil && *e.Unlocked {
			fmt.Fprintln(&b, "  Entry password: ✓ unlocks the private key")
		}
		fmt.Fprintf(&b, "  Certificate chain length: %d\n", len(e.Chain))

		for i, c := range e.Chain {
			fmt.Fprintf(&b, "  [%d] Subject: %s\n", i, c.Subject)
			fmt.Fprintf(&b, "      Issuer: %s\n", c.Issuer)
			fmt.Fprintf(&b, "      Not Before: %s\n", c.NotBefore.Format(time.RFC3339))
			fmt.Fprintf(&b, "      Not After: %s\n", c.NotAfter.Format(time.RFC3339))
			if c.DaysUntilExpiry < 0 {
				fmt.Fprintln(&b, "      Status: ✗ EXPIRED")
			} else {
				fmt.Fprintf(&b, "      Status: ✓ Valid (%d days remaining)\n", c.DaysUntilExpiry)
			}
			if c.Warning != "" && c.DaysUntilExpiry >= 0 {
				fmt.Fprintf(&b, "      Warning: ⚠  %s\n", c.Warning)
			}
			fmt.Fprintf(&b, "      Public Key Algorithm: %s\n", c.PublicKeyAlgorithm)
			fmt.Fprintf(&b, "      Serial Number: %s\n", c.SerialNumber)
			if len(c.DNSNames) > 0 || len(c.IPAddresses) > 0 {
				fmt.Fprintf(&b, "      SANs: %s\n", strings.Join(append(append([]string{}, c.DNSNames...), c.IPAddresses...), ", "))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

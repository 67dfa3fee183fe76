package main

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/keyport/pkg/cli"
	"mercator-hq/keyport/pkg/config"
	"mercator-hq/keyport/pkg/security/pkcs12"
	"mercator-hq/keyport/pkg/security/secrets"
)

var keystoreGenerateFlags struct {
	alias            string
	hosts            string
	org              string
	validity         int
	keyType          string
	keySize          int
	passwordEnv      string
	entryPasswordEnv string
	force            bool
}

var keystoreGenerateCmd = &cobra.Command{
	Use:   "generate <keystore-file>",
	Short: "Generate a keystore with a self-signed identity",
	Long: `Generate a PKCS#12 keystore holding one private key entry with a
self-signed certificate.

The keystore password is read from --password-env or prompted for. The
entry password is read from --entry-password-env; without it the entry is
protected with the keystore password.

Features:
  - ECDSA P-256 (default) or RSA keys
  - Multiple Subject Alternative Names (DNS and IP)
  - Configurable validity period
  - Secure file permissions (0600)

⚠️  WARNING: Self-signed certificates are for TESTING ONLY!

Examples:
  # Generate a keystore for localhost
  keyport keystore generate keystore.p12

  # Separate keystore and entry passwords from the environment
  STORE_PASS=changeit ENTRY_PASS=s3cret keyport keystore generate keystore.p12 \
    --alias server --host "localhost,127.0.0.1" \
    --password-env STORE_PASS --entry-password-env ENTRY_PASS`,
	Args: cobra.ExactArgs(1),
	RunE: generateKeystore,
}

func init() {
	keystoreCmd.AddCommand(keystoreGenerateCmd)

	keystoreGenerateCmd.Flags().StringVar(&keystoreGenerateFlags.alias, "alias", "server", "alias of the key entry")
	keystoreGenerateCmd.Flags().StringVar(&keystoreGenerateFlags.hosts, "host", "localhost,127.0.0.1", "comma-separated hostnames and IPs")
	keystoreGenerateCmd.Flags().StringVar(&keystoreGenerateFlags.org, "org", "Keyport", "organization name")
	keystoreGenerateCmd.Flags().IntVar(&keystoreGenerateFlags.validity, "validity", 365, "validity in days")
	keystoreGenerateCmd.Flags().StringVar(&keystoreGenerateFlags.keyType, "key-type", "ecdsa", "key type (ecdsa, rsa)")
	keystoreGenerateCmd.Flags().IntVar(&keystoreGenerateFlags.keySize, "key-size", 2048, "RSA key size (2048, 3072, 4096)")
	keystoreGenerateCmd.Flags().StringVar(&keystoreGenerateFlags.passwordEnv, "password-env", "", "environment variable holding the keystore password")
	keystoreGenerateCmd.Flags().StringVar(&keystoreGenerateFlags.entryPasswordEnv, "entry-password-env", "", "environment variable holding the entry password")
	keystoreGenerateCmd.Flags().BoolVar(&keystoreGenerateFlags.force, "force", false, "overwrite an existing file")
}

func generateKeystore(cmd *cobra.Command, args []string) error {
	path := args[0]
	flags := keystoreGenerateFlags
	out := cmd.OutOrStdout()

	if flags.alias == "" {
		return cli.NewConfigError("alias", "must not be empty")
	}
	if flags.validity <= 0 {
		return cli.NewConfigError("validity", fmt.Sprintf("must be positive, got %d", flags.validity))
	}
	if !flags.force {
		if _, err := os.Stat(path); err == nil {
			return cli.NewConfigError("force", fmt.Sprintf("%s already exists", path))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	key, err := generateKey(flags.keyType, flags.keySize)
	if err != nil {
		return err
	}

	dnsNames, ipAddresses := splitHosts(flags.hosts)
	commonName := "localhost"
	if len(dnsNames) > 0 {
		commonName = dnsNames[0]
	} else if len(ipAddresses) > 0 {
		commonName = ipAddresses[0].String()
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.AddDate(0, 0, flags.validity)

	keyUsage := x509.KeyUsageDigitalSignature
	if _, ok := key.(*rsa.PrivateKey); ok {
		keyUsage |= x509.KeyUsageKeyEncipherment
	}
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{flags.org},
			CommonName:   commonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}

	signer := key.(crypto.Signer)
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, signer.Public(), signer)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	pw := &cli.PasswordSource{In: cmd.InOrStdin(), Prompt: cmd.ErrOrStderr()}
	storePass, err := pw.Read("Keystore password: ", flags.passwordEnv)
	if err != nil {
		return err
	}
	defer storePass.Zero()
	if storePass.Len() == 0 {
		return cli.NewConfigError("password", "keystore password must not be empty")
	}

	var entryPass secrets.Value
	if flags.entryPasswordEnv != "" {
		entryPass, err = pw.Read("Entry password: ", flags.entryPasswordEnv)
		if err != nil {
			return err
		}
		defer entryPass.Zero()
	}

	data, err := pkcs12.Encode([]pkcs12.Entry{{
		Alias:        flags.alias,
		PrivateKey:   key,
		Certificates: []*x509.Certificate{cert},
		Password:     entryPass,
	}}, storePass, nil)
	if err != nil {
		return fmt.Errorf("failed to encode keystore: %w", err)
	}

	mode := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if flags.force {
		mode = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, mode, 0600)
	if err != nil {
		return fmt.Errorf("failed to create keystore file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write keystore: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}

	fmt.Fprintln(out, "Keystore Generation Summary:")
	fmt.Fprintln(out, "============================")
	fmt.Fprintf(out, "Alias: %s\n", flags.alias)
	fmt.Fprintf(out, "Subject: %s\n", cert.Subject.String())
	if len(dnsNames) > 0 {
		fmt.Fprintf(out, "  DNS Names: %v\n", dnsNames)
	}
	if len(ipAddresses) > 0 {
		fmt.Fprintf(out, "  IP Addresses: %v\n", ipAddresses)
	}
	fmt.Fprintf(out, "Key: %s\n", cert.PublicKeyAlgorithm)
	fmt.Fprintf(out, "Not Before: %s\n", notBefore.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Not After: %s\n", notAfter.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Keystore generated: %s\n", path)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "⚠️  WARNING: Self-signed certificates are for TESTING ONLY")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To serve it, add to your security properties:")
	fmt.Fprintln(out, "---")
	fmt.Fprintf(out, "%s=%s\n", config.KeyKeystorePath, path)
	fmt.Fprintf(out, "%s=${secret:keystore-password}\n", config.KeyKeystorePassword)
	fmt.Fprintf(out, "%s=%s\n", config.KeyEntryAlias, flags.alias)
	fmt.Fprintf(out, "%s=${secret:entry-password}\n", config.KeyEntryPassword)

	return nil
}

func generateKey(keyType string, keySize int) (crypto.PrivateKey, error) {
	switch strings.ToLower(keyType) {
	case "ecdsa", "ec":
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate private key: %w", err)
		}
		return key, nil
	case "rsa":
		if keySize != 2048 && keySize != 3072 && keySize != 4096 {
			return nil, fmt.Errorf("invalid key size: %d (must be 2048, 3072, or 4096)", keySize)
		}
		key, err := rsa.GenerateKey(rand.Reader, keySize)
		if err != nil {
			return nil, fmt.Errorf("failed to generate private key: %w", err)
		}
		return key, nil
	default:
		return nil, cli.NewConfigError("key-type", fmt.Sprintf("unknown key type %q (want ecdsa or rsa)", keyType))
	}
}

func splitHosts(hosts string) ([]string, []net.IP) {
	var dnsNames []string
	var ipAddresses []net.IP
	for _, host := range strings.Split(hosts, ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if ip := net.ParseIP(host); ip != nil {
			ipAddresses = append(ipAddresses, ip)
		} else {
			dnsNames = append(dnsNames, host)
		}
	}
	return dnsNames, ipAddresses
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/keyport/pkg/cli"
	"mercator-hq/keyport/pkg/keystore"
	"mercator-hq/keyport/pkg/properties"
	"mercator-hq/keyport/pkg/security/secrets"
	"mercator-hq/keyport/pkg/server"
	"mercator-hq/keyport/pkg/startup"
	"mercator-hq/keyport/pkg/telemetry/logging"
	"mercator-hq/keyport/pkg/telemetry/metrics"
)

// embedResources selects the configuration compiled into the binary.
const embedResources = "embed"

// secretEnvPrefix prefixes environment variables holding ${secret:name} values.
const secretEnvPrefix = "KEYPORT_SECRET_"

var serveFlags struct {
	config     string
	resources  string
	secretsDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTPS server",
	Long: `Start the HTTPS server.

Startup runs these stages and stops at the first failure:
  config-load           read the application properties
  port-parse            read local.port
  security-config-load  read the security properties named by
                        security.config.filepath
  keystore-decode       open the keystore and unlock the entry
  tls-build             build the TLS context

Resource names are resolved against --resources, a directory or "embed" for
the configuration compiled into the binary. Names may also carry a scheme:
"file:/etc/keyport/security.properties" or "embed:security.properties".

Password values may reference secrets as ${secret:name}. Secrets are read
from KEYPORT_SECRET_<NAME> environment variables and, with --secrets-dir,
from files in that directory.

Startup stages and requests are traced over OTLP when tracing.enabled=true.

Application keys can be overridden with KEYPORT_<KEY> environment variables,
e.g. KEYPORT_LOCAL_PORT=9443.

Examples:
  # Serve with the embedded configuration
  KEYPORT_SECRET_KEYSTORE_PASSWORD=changeit \
  KEYPORT_SECRET_ENTRY_PASSWORD=changeit keyport serve

  # Serve with configuration from a directory
  keyport serve --resources /etc/keyport --config application.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: validateResources,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.config, "config", "c", "application.properties", "application properties resource")
	serveCmd.Flags().StringVar(&serveFlags.resources, "resources", embedResources, `resource directory, or "embed"`)
	serveCmd.Flags().StringVar(&serveFlags.secretsDir, "secrets-dir", "", "directory of secret files for ${secret:name} references")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	p, err := newPipeline(serveFlags.resources, serveFlags.secretsDir, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	if code := p.Run(ctx, serveFlags.config); code != 0 {
		return &cli.ExitError{Code: code, Silent: true}
	}
	return nil
}

// newPipeline wires the startup pipeline for the serve command.
func newPipeline(resources, secretsDir string, stderr io.Writer) (*startup.Pipeline, error) {
	redactor := logging.NewRedactor()

	providers := []secrets.SecretProvider{secrets.NewEnvProvider(secretEnvPrefix)}
	if secretsDir != "" {
		fp, err := secrets.NewFileProvider(secretsDir)
		if err != nil {
			return nil, cli.NewConfigError("secrets-dir", err.Error())
		}
		providers = append(providers, fp)
	}

	collector := metrics.NewCollector(true, nil)

	p := &startup.Pipeline{
		Resolver:    newResolver(resources),
		Decoder:     &keystore.Decoder{},
		Secrets:     secrets.NewManager(providers, secrets.WithTracker(redactor)),
		Diagnostics: stderr,
		LogOutput:   stderr,
		Redactor:    redactor,
		Metrics:     collector,
		Version:     Version,
		NewListener: func(ready *startup.Ready) startup.Listener {
			return server.New(server.Options{
				Settings: ready.Settings,
				Logger:   ready.Logger,
				Metrics:  collector,
				Tracer:   ready.Tracer,
				Version:  Version,
			})
		},
	}

	if verbose {
		logger, err := logging.New(logging.Config{
			Level:    "debug",
			Format:   "json",
			Redactor: redactor,
			Writer:   stderr,
		})
		if err != nil {
			return nil, err
		}
		p.Logger = logger
	}

	return p, nil
}

// newResolver resolves bare names against resources and honors the file:
// and embed: schemes.
func newResolver(resources string) properties.Resolver {
	embedded := properties.FSResolver{FS: resourcesFS()}

	var def properties.Resolver = embedded
	if resources != embedResources {
		def = properties.DirResolver{Root: resources}
	}

	return properties.SchemeResolver{
		Default: def,
		Schemes: map[string]properties.Resolver{
			"file":  properties.DirResolver{},
			"embed": embedded,
		},
	}
}

func validateResources(cmd *cobra.Command, args []string) error {
	if serveFlags.resources == "" {
		return cli.NewConfigError("resources", "must be a directory or \"embed\"")
	}
	if serveFlags.resources == embedResources {
		return nil
	}
	info, err := os.Stat(serveFlags.resources)
	if err != nil {
		return cli.NewConfigError("resources", err.Error())
	}
	if !info.IsDir() {
		return cli.NewConfigError("resources", fmt.Sprintf("%s is not a directory", serveFlags.resources))
	}
	return nil
}

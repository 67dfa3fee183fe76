package startup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/keyport/pkg/config"
	"mercator-hq/keyport/pkg/keystore"
	"mercator-hq/keyport/pkg/properties"
	"mercator-hq/keyport/pkg/security/secrets"
	securityTLS "mercator-hq/keyport/pkg/security/tls"
	"mercator-hq/keyport/pkg/telemetry/logging"
	"mercator-hq/keyport/pkg/telemetry/metrics"
	"mercator-hq/keyport/pkg/telemetry/tracing"
)

// Listener serves TLS on port until ctx is canceled or serving fails.
type Listener interface {
	Serve(ctx context.Context, tlsCtx *securityTLS.ServerContext, port int) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, tlsCtx *securityTLS.ServerContext, port int) error

// Serve calls f.
func (f ListenerFunc) Serve(ctx context.Context, tlsCtx *securityTLS.ServerContext, port int) error {
	return f(ctx, tlsCtx, port)
}

// Pipeline runs the startup sequence. Only Resolver and NewListener are
// required.
type Pipeline struct {
	// Resolver opens both the application and the security properties.
	Resolver properties.Resolver

	// Decoder reads the keystore. The zero Decoder reads the local filesystem.
	Decoder *keystore.Decoder

	// Secrets resolves ${secret:name} password references. Without it
	// references are rejected.
	Secrets *secrets.Manager

	// NewListener creates the listener once startup succeeded.
	NewListener func(ready *Ready) Listener

	// Diagnostics receives the one-line failure report. Defaults to os.Stderr.
	// When it is also the log output, the failure is logged at debug level
	// only.
	Diagnostics io.Writer

	// Logger is used as is when set. Otherwise a logger is built from the
	// log.* settings, writing to LogOutput.
	Logger    *slog.Logger
	LogOutput io.Writer

	// Redactor masks resolved passwords in log output.
	Redactor *logging.Redactor

	// Metrics records stage durations and failures. May be nil.
	Metrics *metrics.Collector

	// Tracer is used as is when set. Otherwise one is built from the
	// tracing.* settings and shut down when Run returns.
	Tracer *tracing.Tracer

	// Version is reported as the service version of startup traces.
	Version string

	// LookupEnv reads environment overrides. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Now defaults to time.Now.
	Now func() time.Time
}

// Run prepares the server and serves until ctx is done. It returns the
// process exit code: 0 after a clean shutdown, 1 on any failure, or the
// listener error's own code when it has an ExitCode method.
func (p *Pipeline) Run(ctx context.Context, configName string) int {
	out := p.Prepare(ctx, configName)
	if !out.OK() {
		p.report(out.Failed)
		return 1
	}

	ready := out.Ready
	defer p.shutdownTracer(ready)

	if p.NewListener == nil {
		fmt.Fprintln(p.diagnostics(), "startup failed: no listener configured")
		return 1
	}

	err := p.NewListener(ready).Serve(ctx, ready.TLS, ready.Port)
	if err == nil || errors.Is(err, context.Canceled) {
		ready.Logger.Info("server stopped", "port", ready.Port)
		return 0
	}

	ready.Logger.Error("listener failed", "port", ready.Port, "error", err)
	fmt.Fprintf(p.diagnostics(), "listener failed on port %d: %v\n", ready.Port, err)

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}

// Prepare runs every stage up to and including the TLS context build,
// stopping at the first failure. Resolved passwords, and the redactor's
// copies of them, are zeroed before it returns.
func (p *Pipeline) Prepare(ctx context.Context, configName string) Outcome {
	logger := p.Logger
	if logger == nil {
		logger = p.buildLogger(config.DefaultSettings().Logging)
	}

	defer p.Redactor.Forget()

	begin := time.Now()
	tracer, owns := p.Tracer, false
	traceCtx, root := tracer.Start(ctx, "startup")

	fail := func(stage Stage, err error) Outcome {
		se := &StageError{Stage: stage, Err: err}
		p.Metrics.RecordStartupFailure(string(stage))
		level := slog.LevelError
		if sameWriter(p.logOutput(), p.diagnostics()) {
			// The diagnostic line already reports the failure on this writer.
			level = slog.LevelDebug
		}
		logger.Log(logging.WithStage(traceCtx, string(stage)), level, "startup failed", "error", err)

		root.SetAttributes(tracing.Stage(string(stage)))
		tracing.SetStatus(root, se)
		root.End()
		if owns {
			p.shutdownTracer(&Ready{Tracer: tracer, ownsTracer: true})
		}
		return Outcome{Failed: se}
	}

	var (
		app      properties.Map
		settings config.Settings
	)
	err := p.timed(traceCtx, tracer, StageConfigLoad, func(ctx context.Context, _ trace.Span) error {
		m, err := properties.Load(ctx, p.Resolver, configName)
		if err != nil {
			return err
		}
		app = config.ApplyEnvOverrides(m, p.lookupEnv())
		settings, err = config.ParseSettings(app)
		return err
	})
	if err != nil {
		return fail(StageConfigLoad, err)
	}
	if p.Logger == nil {
		logger = p.buildLogger(settings.Logging)
	}
	logger.Debug("configuration loaded", "resource", configName, "keys", len(app))

	if tracer == nil {
		tracer, owns = p.buildTracer(ctx, settings.Tracing, logger), true
		traceCtx, root = tracer.Start(ctx, "startup", trace.WithTimestamp(begin))
		_, span := tracer.Start(traceCtx, stageSpanName(StageConfigLoad),
			trace.WithTimestamp(begin),
			trace.WithAttributes(tracing.Stage(string(StageConfigLoad))),
		)
		tracing.SetStatus(span, nil)
		span.End()
	}

	var port int
	err = p.timed(traceCtx, tracer, StagePortParse, func(context.Context, trace.Span) error {
		port, err = config.Port(app)
		return err
	})
	if err != nil {
		return fail(StagePortParse, err)
	}
	root.SetAttributes(attribute.Int(tracing.AttrPort, port))

	var creds keystore.Credentials
	defer creds.Zero()
	err = p.timed(traceCtx, tracer, StageSecurityConfigLoad, func(ctx context.Context, _ trace.Span) error {
		creds, err = p.loadCredentials(ctx, app)
		return err
	})
	if err != nil {
		return fail(StageSecurityConfigLoad, err)
	}
	logger.Debug("security configuration loaded", "keystore", creds)

	var data *keystore.Data
	err = p.timed(traceCtx, tracer, StageKeystoreDecode, func(ctx context.Context, span trace.Span) error {
		tracing.SetKeystoreAttributes(span, creds.Path, creds.Alias)
		data, err = p.decoder().Decode(ctx, creds)
		return err
	})
	if err != nil {
		return fail(StageKeystoreDecode, err)
	}

	var tlsCtx *securityTLS.ServerContext
	err = p.timed(traceCtx, tracer, StageTLSBuild, func(_ context.Context, span trace.Span) error {
		tlsCtx, err = securityTLS.Build(data.PrivateKey, data.Chain)
		if err == nil {
			tracing.SetCertificateAttributes(span, tlsCtx.Leaf().Subject.String(), tlsCtx.Leaf().NotAfter.Unix())
		}
		return err
	})
	data = nil
	if err != nil {
		return fail(StageTLSBuild, err)
	}

	leaf := tlsCtx.Leaf()
	p.Metrics.SetCertificateExpiry(leaf.NotAfter)
	if _, warning := securityTLS.CheckCertificateExpiration(leaf, settings.Expiry.WarnDays, p.now()); warning != "" {
		logger.Warn("certificate expiry", "warning", warning)
	}
	logger.InfoContext(traceCtx, "tls context ready",
		"port", port,
		"alias", creds.Alias,
		"subject", leaf.Subject.String(),
		"chain_length", len(tlsCtx.Chain()),
	)

	tracing.SetStatus(root, nil)
	root.End()

	return Outcome{Ready: &Ready{
		Port:       port,
		TLS:        tlsCtx,
		Settings:   settings,
		Logger:     logger,
		Tracer:     tracer,
		ownsTracer: owns,
	}}
}

// loadCredentials reads the security properties named by the application
// properties and resolves both passwords.
func (p *Pipeline) loadCredentials(ctx context.Context, app properties.Map) (keystore.Credentials, error) {
	name, err := config.SecurityConfigPath(app)
	if err != nil {
		return keystore.Credentials{}, err
	}

	m, err := properties.Load(ctx, p.Resolver, name)
	if err != nil {
		return keystore.Credentials{}, err
	}

	sec, err := config.ParseSecurity(m)
	if err != nil {
		return keystore.Credentials{}, fmt.Errorf("%s: %w", name, err)
	}

	mgr := p.secretManager()
	storePass, err := mgr.Resolve(ctx, sec.KeystorePassword)
	if err != nil {
		return keystore.Credentials{}, &config.KeyError{Key: config.KeyKeystorePassword, Message: "cannot resolve value", Err: err}
	}
	entryPass, err := mgr.Resolve(ctx, sec.EntryPassword)
	if err != nil {
		storePass.Zero()
		return keystore.Credentials{}, &config.KeyError{Key: config.KeyEntryPassword, Message: "cannot resolve value", Err: err}
	}

	return keystore.Credentials{
		Path:             sec.KeystorePath,
		KeystorePassword: storePass,
		Alias:            sec.Alias,
		EntryPassword:    entryPass,
	}, nil
}

// timed runs fn inside a span for stage and records its duration.
func (p *Pipeline) timed(ctx context.Context, tracer *tracing.Tracer, stage Stage, fn func(context.Context, trace.Span) error) error {
	ctx, span := tracer.Start(ctx, stageSpanName(stage), trace.WithAttributes(tracing.Stage(string(stage))))
	defer span.End()

	start := time.Now()
	err := fn(ctx, span)
	p.Metrics.ObserveStage(string(stage), time.Since(start))
	tracing.SetStatus(span, err)
	return err
}

func stageSpanName(stage Stage) string {
	return "startup." + string(stage)
}

func (p *Pipeline) report(se *StageError) {
	fmt.Fprintln(p.diagnostics(), se.Error())
}

func (p *Pipeline) buildLogger(cfg config.LoggingConfig) *slog.Logger {
	logger, err := logging.New(logging.Config{
		Level:    cfg.Level,
		Format:   cfg.Format,
		Redactor: p.Redactor,
		Writer:   p.LogOutput,
	})
	if err != nil {
		// Settings are validated before this point.
		return slog.Default()
	}
	return logger
}

// buildTracer creates the tracer from the tracing.* settings. Tracing never
// fails startup: on error the pipeline runs untraced.
func (p *Pipeline) buildTracer(ctx context.Context, cfg config.TracingConfig, logger *slog.Logger) *tracing.Tracer {
	tracer, err := tracing.New(ctx, cfg, p.Version)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		tracer, _ = tracing.New(ctx, config.TracingConfig{}, p.Version)
	}
	return tracer
}

// shutdownTracer flushes a tracer the pipeline created.
func (p *Pipeline) shutdownTracer(ready *Ready) {
	if !ready.ownsTracer {
		return
	}
	timeout := ready.Settings.Tracing.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTracingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = ready.Tracer.Shutdown(ctx)
}

func (p *Pipeline) secretManager() *secrets.Manager {
	if p.Secrets != nil {
		return p.Secrets
	}
	if p.Redactor != nil {
		return secrets.NewManager(nil, secrets.WithTracker(p.Redactor))
	}
	return secrets.NewManager(nil)
}

func (p *Pipeline) decoder() *keystore.Decoder {
	if p.Decoder != nil {
		return p.Decoder
	}
	return &keystore.Decoder{}
}

func (p *Pipeline) diagnostics() io.Writer {
	if p.Diagnostics != nil {
		return p.Diagnostics
	}
	return os.Stderr
}

func (p *Pipeline) logOutput() io.Writer {
	if p.LogOutput != nil {
		return p.LogOutput
	}
	return os.Stderr
}

// sameWriter reports whether a and b are the same comparable writer.
func sameWriter(a, b io.Writer) bool {
	if a == nil || b == nil || !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

func (p *Pipeline) lookupEnv() func(string) (string, bool) {
	if p.LookupEnv != nil {
		return p.LookupEnv
	}
	return os.LookupEnv
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

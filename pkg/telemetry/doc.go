// Package telemetry groups the observability packages of keyport.
//
// # Components
//
//   - logging: slog loggers with password redaction
//   - metrics: Prometheus startup, request and certificate metrics
//   - tracing: OpenTelemetry spans for startup stages and requests
//   - health: health check endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redactor: redactor})
//
//	collector := metrics.NewCollector(true, nil)
//	collector.ObserveStage("keystore-decode", elapsed)
//
//	tracer, err := tracing.New(ctx, settings.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//	ctx, span := tracer.Start(ctx, "startup")
//	defer span.End()
//
// # Password Protection
//
// Passwords resolved during startup are tracked by a logging.Redactor and
// masked wherever they would appear in log output. Attributes with
// sensitive keys such as password or private_key are always redacted.
package telemetry

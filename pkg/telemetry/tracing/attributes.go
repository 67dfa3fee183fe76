package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys in the keyport.* namespace.
const (
	AttrStage         = "keyport.startup.stage"
	AttrKeystorePath  = "keyport.keystore.path"
	AttrKeystoreAlias = "keyport.keystore.alias"
	AttrPort          = "keyport.port"
	AttrCertSubject   = "keyport.certificate.subject"
	AttrCertNotAfter  = "keyport.certificate.not_after"
	AttrRequestID     = "keyport.request_id"
)

// Stage returns the attribute naming a startup stage.
func Stage(stage string) attribute.KeyValue {
	return attribute.String(AttrStage, stage)
}

// SetKeystoreAttributes records which keystore entry a span works on.
// Passwords are never recorded.
func SetKeystoreAttributes(span trace.Span, path, alias string) {
	span.SetAttributes(
		attribute.String(AttrKeystorePath, path),
		attribute.String(AttrKeystoreAlias, alias),
	)
}

// SetCertificateAttributes records the served leaf certificate.
func SetCertificateAttributes(span trace.Span, subject string, notAfterUnix int64) {
	span.SetAttributes(
		attribute.String(AttrCertSubject, subject),
		attribute.Int64(AttrCertNotAfter, notAfterUnix),
	)
}

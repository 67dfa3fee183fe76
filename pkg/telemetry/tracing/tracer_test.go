package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/keyport/pkg/config"
)

func enabledConfig() config.TracingConfig {
	return config.TracingConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		Timeout:     time.Second,
		Sampler:     SamplerAlways,
		SampleRatio: 1.0,
		ServiceName: "keyport-test",
	}
}

func newRecordingTracer(t *testing.T, cfg config.TracingConfig) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(context.Background(), cfg, "1.2.3", WithExporter(exporter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.TracingConfig)
		wantErr bool
	}{
		{name: "disabled tracing", modify: func(c *config.TracingConfig) { c.Enabled = false }},
		{name: "always sampler", modify: func(c *config.TracingConfig) {}},
		{name: "never sampler", modify: func(c *config.TracingConfig) { c.Sampler = SamplerNever }},
		{
			name: "ratio sampler",
			modify: func(c *config.TracingConfig) {
				c.Sampler = SamplerRatio
				c.SampleRatio = 0.5
			},
		},
		{name: "invalid sampler", modify: func(c *config.TracingConfig) { c.Sampler = "sometimes" }, wantErr: true},
		{
			name: "ratio out of range",
			modify: func(c *config.TracingConfig) {
				c.Sampler = SamplerRatio
				c.SampleRatio = 2
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig()
			tt.modify(&cfg)

			tracer, err := New(context.Background(), cfg, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if tracer.Enabled() != cfg.Enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), cfg.Enabled)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracer.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestTracer_Disabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	tracer, exporter := newRecordingTracer(t, cfg)

	ctx, span := tracer.Start(context.Background(), "startup")
	if span.IsRecording() {
		t.Error("disabled tracer returned a recording span")
	}
	span.End()

	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty", TraceID(ctx))
	}
	if got := len(exporter.GetSpans()); got != 0 {
		t.Errorf("exported %d spans, want 0", got)
	}
}

func TestTracer_Nil(t *testing.T) {
	var tracer *Tracer

	ctx := context.Background()
	_, span := tracer.Start(ctx, "startup")
	if span == nil || span.IsRecording() {
		t.Error("nil tracer should return a non-recording span")
	}
	span.End()

	if tracer.Enabled() {
		t.Error("nil tracer reports enabled")
	}
	if err := tracer.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if got := tracer.Extract(ctx, http.Header{}); got != ctx {
		t.Error("Extract() on nil tracer should return ctx unchanged")
	}
	tracer.Inject(ctx, http.Header{})
}

func TestTracer_StartRecordsSpans(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, enabledConfig())

	ctx, parent := tracer.Start(context.Background(), "startup")
	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Fatal("expected trace and span IDs in context")
	}
	_, child := tracer.Start(ctx, "startup.keystore-decode", trace.WithAttributes(Stage("keystore-decode")))
	SetKeystoreAttributes(child, "/etc/keyport/keystore.p12", "server")
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}

	// Spans are exported as they end: child first.
	childStub, parentStub := spans[0], spans[1]
	if childStub.Name != "startup.keystore-decode" || parentStub.Name != "startup" {
		t.Fatalf("span names = %q, %q", childStub.Name, parentStub.Name)
	}
	if childStub.Parent.SpanID() != parentStub.SpanContext.SpanID() {
		t.Error("child span is not parented to the startup span")
	}

	attrs := map[attribute.Key]string{}
	for _, kv := range childStub.Attributes {
		attrs[kv.Key] = kv.Value.Emit()
	}
	if attrs[AttrStage] != "keystore-decode" {
		t.Errorf("%s = %q", AttrStage, attrs[AttrStage])
	}
	if attrs[AttrKeystoreAlias] != "server" {
		t.Errorf("%s = %q", AttrKeystoreAlias, attrs[AttrKeystoreAlias])
	}

	var service string
	for _, kv := range parentStub.Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "keyport-test" {
		t.Errorf("service.name = %q, want keyport-test", service)
	}
}

func TestSetStatus(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, enabledConfig())

	_, ok := tracer.Start(context.Background(), "ok")
	SetStatus(ok, nil)
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	SetStatus(failed, errors.New("wrong entry password"))
	failed.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("ok span status = %v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "wrong entry password" {
		t.Errorf("failed span status = %+v", spans[1].Status)
	}
	if len(spans[1].Events) == 0 || spans[1].Events[0].Name != "exception" {
		t.Errorf("failed span events = %+v, want an exception event", spans[1].Events)
	}
}

func TestTracer_Propagation(t *testing.T) {
	tracer, _ := newRecordingTracer(t, enabledConfig())

	ctx, span := tracer.Start(context.Background(), "client")
	defer span.End()

	headers := http.Header{}
	tracer.Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("Inject() did not set traceparent")
	}

	extracted := tracer.Extract(context.Background(), headers)
	_, child := tracer.Start(extracted, "server")
	defer child.End()

	if got, want := child.SpanContext().TraceID().String(), TraceID(ctx); got != want {
		t.Errorf("child trace ID = %s, want %s", got, want)
	}
}

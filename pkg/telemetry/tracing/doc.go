// Package tracing provides OpenTelemetry tracing for keyport.
//
// # Overview
//
// A Tracer records one span per startup stage under a "startup" root span,
// and one server span per HTTPS request. Spans are exported over OTLP gRPC
// to the collector named by the tracing.* settings. A disabled Tracer, and a
// nil *Tracer, hand out no-op spans.
//
// # Trace Context Propagation
//
// Incoming requests carrying W3C Trace Context headers continue the caller's
// trace:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling Strategies
//
// Three sampling strategies are supported, each wrapped in ParentBased so a
// sampled caller keeps its decision:
//   - always: Sample all traces
//   - never: Sample no traces
//   - ratio: Sample tracing.sample.ratio of traces
//
// # Usage
//
//	tracer, err := tracing.New(ctx, settings.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "startup.keystore-decode")
//	defer span.End()
//
// # Attributes
//
// Spans never carry passwords. Keystore spans record the keystore path and
// entry alias only.
package tracing

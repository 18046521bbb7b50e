// Package otelx wraps the otel trace API with the two helpers every service
// call site needs, adapted from mopentelemetry.SetSpanAttributesFromStruct
// and HandleSpanError. No SDK or exporter is wired: without a concrete
// collector target in scope there is nothing for an exporter to ship to, so
// this package only carries the no-op-safe tracer API.
package otelx

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the named tracer from the global (no-op by default)
// provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Start opens a span and returns the child context alongside it.
func Start(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, spanName)
}

// SetAttributesFromStruct marshals v to JSON and attaches it to span under
// key, for request/command payloads worth correlating with a trace.
func SetAttributesFromStruct(span trace.Span, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String(key, string(b)))

	return nil
}

// RecordError marks span as failed and attaches err's message, mirroring the
// teacher's HandleSpanError.
func RecordError(span trace.Span, message string, err error) {
	if err == nil {
		return
	}

	span.SetStatus(codes.Error, message)
	span.RecordError(err)
}

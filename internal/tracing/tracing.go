// Package tracing builds the OpenTelemetry tracer provider of mongosample.
// Finished spans are written to the process logger.
package tracing

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

// NewProvider returns a tracer provider that batches finished spans into a
// LogExporter. Callers own the provider and must Shutdown it to flush.
func NewProvider(log *slog.Logger, serviceName, serviceVersion string) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(NewLogExporter(log)),
		sdktrace.WithResource(newResource(serviceName, serviceVersion)),
	)
}

func newResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}

// TraceID is a logger.ContextExtractor that adds the trace id of the span
// in ctx, so log records can be matched with exported spans.
func TraceID(ctx context.Context) (slog.Attr, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Attr{}, false
	}
	return slog.String("trace_id", sc.TraceID().String()), true
}

// LogExporter writes each finished span as one debug log record. Spans with
// an error status are logged at warn level.
type LogExporter struct {
	log     *slog.Logger
	stopped atomic.Bool
}

var _ sdktrace.SpanExporter = (*LogExporter)(nil)

func NewLogExporter(log *slog.Logger) *LogExporter {
	if log == nil {
		log = logger.Discard()
	}
	return &LogExporter{log: log.With(logger.Component("tracing"))}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.stopped.Load() {
		return nil
	}
	for _, s := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}

		level := slog.LevelDebug
		if s.Status().Code == codes.Error {
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("span", s.Name()),
			slog.String("trace_id", s.SpanContext().TraceID().String()),
			slog.String("span_id", s.SpanContext().SpanID().String()),
			logger.Duration(s.EndTime().Sub(s.StartTime())),
		}
		if s.Parent().IsValid() {
			attrs = append(attrs, slog.String("parent_id", s.Parent().SpanID().String()))
		}
		if s.Status().Code == codes.Error {
			attrs = append(attrs, slog.String("status", s.Status().Description))
		}
		if len(s.Attributes()) > 0 {
			attrs = append(attrs, slog.Attr{Key: "attributes", Value: slog.GroupValue(spanAttrs(s.Attributes())...)})
		}

		e.log.LogAttrs(ctx, level, "Span finished", attrs...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter. Spans exported afterwards are dropped.
func (e *LogExporter) Shutdown(context.Context) error {
	e.stopped.Store(true)
	return nil
}

func spanAttrs(kvs []attribute.KeyValue) []slog.Attr {
	out := make([]slog.Attr, 0, len(kvs))
	for _, kv := range kvs {
		key := string(kv.Key)
		switch kv.Value.Type() {
		case attribute.BOOL:
			out = append(out, slog.Bool(key, kv.Value.AsBool()))
		case attribute.INT64:
			out = append(out, slog.Int64(key, kv.Value.AsInt64()))
		case attribute.FLOAT64:
			out = append(out, slog.Float64(key, kv.Value.AsFloat64()))
		case attribute.STRING:
			out = append(out, slog.String(key, kv.Value.AsString()))
		default:
			out = append(out, slog.String(key, kv.Value.Emit()))
		}
	}
	return out
}

package mongo

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrymomot/mongokit/pkg/mongo"

type spanKey struct {
	connectionID string
	requestID    int64
}

// commandTracer opens a client span when a command starts and ends it when
// the command succeeds or fails.
type commandTracer struct {
	tracer trace.Tracer
	role   string
	next   *event.CommandMonitor
	spans  sync.Map // spanKey -> trace.Span
}

// NewCommandMonitor returns a CommandMonitor that traces each command with
// the given tracer provider. Events are forwarded to next (which may be nil).
func NewCommandMonitor(tp trace.TracerProvider, role string, next *event.CommandMonitor) *event.CommandMonitor {
	t := &commandTracer{
		tracer: tp.Tracer(tracerName),
		role:   role,
		next:   next,
	}
	return &event.CommandMonitor{
		Started:   t.started,
		Succeeded: t.succeeded,
		Failed:    t.failed,
	}
}

func (t *commandTracer) started(ctx context.Context, evt *event.CommandStartedEvent) {
	_, span := t.tracer.Start(ctx, evt.CommandName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.namespace", evt.DatabaseName),
			attribute.String("db.operation.name", evt.CommandName),
			attribute.String("db.mongodb.client", t.role),
			attribute.String("network.peer.connection", evt.ConnectionID),
		),
	)
	t.spans.Store(spanKey{connectionID: evt.ConnectionID, requestID: evt.RequestID}, span)

	if t.next != nil && t.next.Started != nil {
		t.next.Started(ctx, evt)
	}
}

func (t *commandTracer) succeeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	if span, ok := t.finish(evt.CommandFinishedEvent); ok {
		span.SetStatus(codes.Ok, "")
		span.End()
	}

	if t.next != nil && t.next.Succeeded != nil {
		t.next.Succeeded(ctx, evt)
	}
}

func (t *commandTracer) failed(ctx context.Context, evt *event.CommandFailedEvent) {
	if span, ok := t.finish(evt.CommandFinishedEvent); ok {
		msg := "command failed"
		if evt.Failure != nil {
			span.RecordError(evt.Failure)
			msg = evt.Failure.Error()
		}
		span.SetStatus(codes.Error, msg)
		span.End()
	}

	if t.next != nil && t.next.Failed != nil {
		t.next.Failed(ctx, evt)
	}
}

func (t *commandTracer) finish(evt event.CommandFinishedEvent) (trace.Span, bool) {
	v, ok := t.spans.LoadAndDelete(spanKey{connectionID: evt.ConnectionID, requestID: evt.RequestID})
	if !ok {
		return nil, false
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int64("db.mongodb.duration_ms", evt.Duration.Milliseconds()))
	return span, true
}

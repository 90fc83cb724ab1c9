package mongo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mongokit/pkg/mongo"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func finished(name string, requestID int64) event.CommandFinishedEvent {
	return event.CommandFinishedEvent{
		CommandName:  name,
		DatabaseName: "db1",
		RequestID:    requestID,
		ConnectionID: "localhost:27017[-3]",
		Duration:     12 * time.Millisecond,
	}
}

func TestCommandMonitor_SucceededSpan(t *testing.T) {
	rec, tp := newRecorder()
	m := mongo.NewCommandMonitor(tp, mongo.RoleInsert, nil)
	ctx := context.Background()

	m.Started(ctx, &event.CommandStartedEvent{
		CommandName:  "insert",
		DatabaseName: "db1",
		RequestID:    1,
		ConnectionID: "localhost:27017[-3]",
	})
	assert.Empty(t, rec.Ended(), "span must stay open until the command finishes")

	m.Succeeded(ctx, &event.CommandSucceededEvent{CommandFinishedEvent: finished("insert", 1)})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "insert", span.Name())
	assert.Equal(t, trace.SpanKindClient, span.SpanKind())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := attrMap(span.Attributes())
	assert.Equal(t, "mongodb", attrs["db.system"].AsString())
	assert.Equal(t, "db1", attrs["db.namespace"].AsString())
	assert.Equal(t, "insert", attrs["db.operation.name"].AsString())
	assert.Equal(t, mongo.RoleInsert, attrs["db.mongodb.client"].AsString())
	assert.Equal(t, int64(12), attrs["db.mongodb.duration_ms"].AsInt64())
}

func TestCommandMonitor_FailedSpan(t *testing.T) {
	rec, tp := newRecorder()
	m := mongo.NewCommandMonitor(tp, mongo.RoleQuery, nil)
	ctx := context.Background()

	m.Started(ctx, &event.CommandStartedEvent{CommandName: "find", DatabaseName: "db1", RequestID: 2, ConnectionID: "localhost:27017[-3]"})
	m.Failed(ctx, &event.CommandFailedEvent{
		CommandFinishedEvent: finished("find", 2),
		Failure:              errors.New("not primary"),
	})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "not primary", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestCommandMonitor_FailedWithoutError(t *testing.T) {
	rec, tp := newRecorder()
	m := mongo.NewCommandMonitor(tp, mongo.RoleQuery, nil)
	ctx := context.Background()

	m.Started(ctx, &event.CommandStartedEvent{CommandName: "find", RequestID: 3, ConnectionID: "c"})
	fin := finished("find", 3)
	fin.ConnectionID = "c"
	m.Failed(ctx, &event.CommandFailedEvent{CommandFinishedEvent: fin})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestCommandMonitor_InterleavedCommands(t *testing.T) {
	rec, tp := newRecorder()
	m := mongo.NewCommandMonitor(tp, mongo.RoleQuery, nil)
	ctx := context.Background()

	m.Started(ctx, &event.CommandStartedEvent{CommandName: "find", RequestID: 10, ConnectionID: "a"})
	m.Started(ctx, &event.CommandStartedEvent{CommandName: "count", RequestID: 10, ConnectionID: "b"})

	finB := finished("count", 10)
	finB.ConnectionID = "b"
	m.Succeeded(ctx, &event.CommandSucceededEvent{CommandFinishedEvent: finB})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "count", spans[0].Name())

	finA := finished("find", 10)
	finA.ConnectionID = "a"
	m.Succeeded(ctx, &event.CommandSucceededEvent{CommandFinishedEvent: finA})
	assert.Len(t, rec.Ended(), 2)
}

func TestCommandMonitor_UnknownFinishIsIgnored(t *testing.T) {
	rec, tp := newRecorder()
	m := mongo.NewCommandMonitor(tp, mongo.RoleQuery, nil)

	assert.NotPanics(t, func() {
		m.Succeeded(context.Background(), &event.CommandSucceededEvent{CommandFinishedEvent: finished("ping", 99)})
	})
	assert.Empty(t, rec.Ended())
}

func TestCommandMonitor_ForwardsToNext(t *testing.T) {
	_, tp := newRecorder()
	var calls []string
	next := &event.CommandMonitor{
		Started:   func(context.Context, *event.CommandStartedEvent) { calls = append(calls, "started") },
		Succeeded: func(context.Context, *event.CommandSucceededEvent) { calls = append(calls, "succeeded") },
		Failed:    func(context.Context, *event.CommandFailedEvent) { calls = append(calls, "failed") },
	}
	m := mongo.NewCommandMonitor(tp, mongo.RoleQuery, next)
	ctx := context.Background()

	m.Started(ctx, &event.CommandStartedEvent{CommandName: "find", RequestID: 1, ConnectionID: "a"})
	m.Succeeded(ctx, &event.CommandSucceededEvent{CommandFinishedEvent: event.CommandFinishedEvent{RequestID: 1, ConnectionID: "a"}})
	m.Started(ctx, &event.CommandStartedEvent{CommandName: "find", RequestID: 2, ConnectionID: "a"})
	m.Failed(ctx, &event.CommandFailedEvent{CommandFinishedEvent: event.CommandFinishedEvent{RequestID: 2, ConnectionID: "a"}})

	assert.Equal(t, []string{"started", "succeeded", "started", "failed"}, calls)
}

func TestCommandMonitor_ParentSpanFromContext(t *testing.T) {
	rec, tp := newRecorder()
	m := mongo.NewCommandMonitor(tp, mongo.RoleInsert, nil)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "batch")
	m.Started(ctx, &event.CommandStartedEvent{CommandName: "insert", RequestID: 1, ConnectionID: "a"})
	m.Succeeded(ctx, &event.CommandSucceededEvent{CommandFinishedEvent: event.CommandFinishedEvent{RequestID: 1, ConnectionID: "a"}})
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

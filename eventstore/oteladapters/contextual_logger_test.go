package oteladapters_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/fileengine"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/oteladapters"
)

type emitted struct {
	ctx    context.Context
	record log.Record
}

// recordingLogger is an OpenTelemetry logger and logger provider that keeps every emitted record.
type recordingLogger struct {
	noop.Logger
	mu      sync.Mutex
	records []emitted
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, emitted{ctx: ctx, record: record})
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func (l *recordingLogger) all() []emitted {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]emitted(nil), l.records...)
}

type recordingProvider struct {
	noop.LoggerProvider
	logger *recordingLogger
}

func (p recordingProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return p.logger
}

func attributesOf(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}

func Test_OTelLogger_EmitsRecordsWithSeverityAndTypedAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := t.Context()

	// act
	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message", "event_count", 3, "duration_ms", 1.5, "query", "everything")
	logger.WarnContext(ctx, "warn message", "dangling")
	logger.ErrorContext(ctx, "error message", "error", errors.New("boom"), "sequence", uint64(7), "ok", false)

	// assert
	records := recorder.all()
	require.Len(t, records, 4)

	assert.Equal(t, log.SeverityDebug, records[0].record.Severity())
	assert.Equal(t, "debug message", records[0].record.Body().AsString())

	infoAttrs := attributesOf(records[1].record)
	assert.Equal(t, log.SeverityInfo, records[1].record.Severity())
	assert.Equal(t, int64(3), infoAttrs["event_count"].AsInt64())
	assert.InDelta(t, 1.5, infoAttrs["duration_ms"].AsFloat64(), 0.0001)
	assert.Equal(t, "everything", infoAttrs["query"].AsString())

	warnAttrs := attributesOf(records[2].record)
	assert.Equal(t, "dangling", warnAttrs["!BADKEY"].AsString())

	errorAttrs := attributesOf(records[3].record)
	assert.Equal(t, log.SeverityError, records[3].record.Severity())
	assert.Equal(t, "boom", errorAttrs["error"].AsString())
	assert.Equal(t, int64(7), errorAttrs["sequence"].AsInt64())
	assert.False(t, errorAttrs["ok"].AsBool())
	assert.False(t, records[3].record.Timestamp().IsZero())
}

func Test_SlogBridgeLogger_PassesTheTraceContext(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewSlogBridgeLoggerWithProvider("test", recordingProvider{logger: recorder})

	tracerProvider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tracerProvider.Shutdown(context.Background()) })

	ctx, span := tracerProvider.Tracer("test").Start(t.Context(), "operation")
	defer span.End()

	// act
	logger.InfoContext(ctx, "with trace", "event_count", 1)
	logger.Info("without context")

	// assert
	records := recorder.all()
	require.Len(t, records, 2)
	assert.Equal(t, "with trace", records[0].record.Body().AsString())
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(records[0].ctx).TraceID())
	assert.False(t, trace.SpanContextFromContext(records[1].ctx).IsValid())
}

func Test_SlogBridgeLogger_WorksAsEngineLogger(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewSlogBridgeLoggerWithProvider("test", recordingProvider{logger: recorder})

	es, err := fileengine.NewEventStore(
		t.TempDir(),
		fileengine.WithLogger(logger),
		fileengine.WithContextualLogger(logger),
	)
	require.NoError(t, err)

	// act
	require.NoError(t, es.Append(t.Context(), eventstore.BuildEvent("A", eventstore.WithTimestamp(time.Now().UnixMilli()))))

	// assert
	bodies := make([]string, 0)
	for _, e := range recorder.all() {
		bodies = append(bodies, e.record.Body().AsString())
	}

	assert.Contains(t, bodies, "eventstore operation: events persisted")
	assert.Contains(t, bodies, "eventstore operation: replay completed")
}

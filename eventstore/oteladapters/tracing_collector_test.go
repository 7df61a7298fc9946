package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/memengine"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/observable"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/oteladapters"
)

func newTracingCollector(t *testing.T) (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_RecordsStartAndFinishAttributes(t *testing.T) {
	// setup
	collector, exporter := newTracingCollector(t)

	// act
	_, span := collector.StartSpan(t.Context(), "eventstore.query", map[string]string{"operation": "query"})
	span.AddAttribute("duration_ms", "1.50")
	collector.FinishSpan(span, "success", map[string]string{"event_count": "3"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "eventstore.query", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	for key, expected := range map[string]string{"operation": "query", "duration_ms": "1.50", "event_count": "3"} {
		value, found := spanAttribute(spans[0], key)
		assert.True(t, found, key)
		assert.Equal(t, expected, value, key)
	}
}

func Test_TracingCollector_MapsStatuses(t *testing.T) {
	tests := []struct {
		status              string
		attrs               map[string]string
		expectedCode        codes.Code
		expectedDescription string
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "error", attrs: map[string]string{"error": "boom"}, expectedCode: codes.Error, expectedDescription: "boom"},
		{status: "canceled", expectedCode: codes.Error, expectedDescription: "eventstore operation canceled"},
		{status: "timeout", expectedCode: codes.Error, expectedDescription: "eventstore operation timeout"},
		{status: "whatever", expectedCode: codes.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			// setup
			collector, exporter := newTracingCollector(t)

			// act
			_, span := collector.StartSpan(t.Context(), "op", nil)
			collector.FinishSpan(span, tt.status, tt.attrs)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.expectedCode, spans[0].Status.Code)
			assert.Equal(t, tt.expectedDescription, spans[0].Status.Description)
		})
	}
}

func Test_TracingCollector_StartsChildSpans(t *testing.T) {
	// setup
	collector, exporter := newTracingCollector(t)

	// act
	parentCtx, parent := collector.StartSpan(t.Context(), "parent", nil)
	_, child := collector.StartSpan(parentCtx, "child", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "child", spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	collector, exporter := newTracingCollector(t)

	collector.FinishSpan(nil, "success", nil)

	assert.Empty(t, exporter.GetSpans())
}

func Test_TracingCollector_WithObservableEventStore(t *testing.T) {
	// setup
	ctx := t.Context()
	collector, exporter := newTracingCollector(t)

	inner, err := memengine.NewEventLog()
	require.NoError(t, err)

	store, err := observable.NewEventStore(inner, observable.WithTracing(collector))
	require.NoError(t, err)

	// act
	require.NoError(t, store.Append(ctx, eventstore.BuildEvent("OrderPlaced")))
	_, err = store.Query(ctx, eventstore.AfterEventID(eventstore.NewEventID()))
	require.ErrorIs(t, err, eventstore.ErrUnknownLastEventID)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "eventstore.append", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("event_type", "OrderPlaced"))

	assert.Equal(t, "eventstore.query", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Contains(t, spans[1].Attributes, attribute.String("error_type", "unknown_last_event_id"))
	assert.Contains(t, spans[1].Status.Description, "last event id is unknown")
}

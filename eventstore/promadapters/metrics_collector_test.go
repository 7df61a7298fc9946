package promadapters_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/memengine"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/observable"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/promadapters"
)

func Test_MetricsCollector_RecordDuration_AsHistogramInSeconds(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry, promadapters.WithBuckets(0.1, 1))

	// act
	collector.RecordDuration(
		"eventstore_query_duration_seconds",
		250*time.Millisecond,
		map[string]string{"operation": "query", "status": "success"},
	)

	// assert
	expected := `
# HELP eventstore_query_duration_seconds Duration of event store operations in seconds.
# TYPE eventstore_query_duration_seconds histogram
eventstore_query_duration_seconds_bucket{operation="query",status="success",le="0.1"} 0
eventstore_query_duration_seconds_bucket{operation="query",status="success",le="1"} 1
eventstore_query_duration_seconds_bucket{operation="query",status="success",le="+Inf"} 1
eventstore_query_duration_seconds_sum{operation="query",status="success"} 0.25
eventstore_query_duration_seconds_count{operation="query",status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_query_duration_seconds"))
}

func Test_MetricsCollector_RecordValue_WithTotalSuffix_AddsToCounter(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)
	labels := map[string]string{"operation": "append", "status": "success"}

	// act
	collector.RecordValue("eventstore_events_appended_total", 2, labels)
	collector.RecordValue("eventstore_events_appended_total", 3, labels)
	collector.RecordValue("eventstore_events_appended_total", -1, labels)

	// assert
	expected := `
# HELP eventstore_events_appended_total Number of events handled by the event store.
# TYPE eventstore_events_appended_total counter
eventstore_events_appended_total{operation="append",status="success"} 5
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_events_appended_total"))
}

func Test_MetricsCollector_RecordValue_WithoutTotalSuffix_SetsGauge(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.RecordValue("eventstore_events_stored", 7, nil)
	collector.RecordValue("eventstore_events_stored", 4, nil)

	// assert
	expected := `
# HELP eventstore_events_stored Current value reported by the event store.
# TYPE eventstore_events_stored gauge
eventstore_events_stored 4
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_events_stored"))
}

func Test_MetricsCollector_LabelsOfLaterCalls_AreAlignedToTheFirstCall(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.IncrementCounter("eventstore_errors_total", map[string]string{"operation": "query", "error_type": "other"})
	collector.IncrementCounter("eventstore_errors_total", map[string]string{
		"operation":  "append",
		"error_type": "other",
		"status":     "error",
	})

	// assert
	expected := `
# HELP eventstore_errors_total Count of event store occurrences.
# TYPE eventstore_errors_total counter
eventstore_errors_total{error_type="other",operation="query"} 1
eventstore_errors_total{error_type="other",operation="append"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_errors_total"))
}

func Test_MetricsCollector_SharingARegistry_ReusesTheRegisteredVectors(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	first := promadapters.NewMetricsCollector(registry)
	second := promadapters.NewMetricsCollector(registry)
	labels := map[string]string{"operation": "query"}

	// act
	first.IncrementCounter("eventstore_errors_total", labels)
	second.IncrementCounter("eventstore_errors_total", labels)

	// assert
	expected := `
# HELP eventstore_errors_total Count of event store occurrences.
# TYPE eventstore_errors_total counter
eventstore_errors_total{operation="query"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_errors_total"))
}

func Test_MetricsCollector_ConflictingRegistration_IsReportedAndSkipped(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	var reported []error
	first := promadapters.NewMetricsCollector(registry)
	second := promadapters.NewMetricsCollector(registry, promadapters.WithErrorHandler(func(err error) {
		reported = append(reported, err)
	}))

	// act
	first.RecordValue("eventstore_events_stored", 1, map[string]string{"operation": "query"})
	second.RecordValue("eventstore_events_stored", 2, map[string]string{"shard": "a"})

	// assert
	require.Len(t, reported, 1)

	expected := `
# HELP eventstore_events_stored Current value reported by the event store.
# TYPE eventstore_events_stored gauge
eventstore_events_stored{operation="query"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_events_stored"))
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// setup
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			collector.IncrementCounter("eventstore_errors_total", nil)
		}()
	}

	wg.Wait()

	// assert
	expected := `
# HELP eventstore_errors_total Count of event store occurrences.
# TYPE eventstore_errors_total counter
eventstore_errors_total 20
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "eventstore_errors_total"))
}

func Test_MetricsCollector_WithObservableEventStore(t *testing.T) {
	// setup
	ctx := t.Context()
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	inner, err := memengine.NewEventLog()
	require.NoError(t, err)

	store, err := observable.NewEventStore(inner, observable.WithMetrics(collector))
	require.NoError(t, err)

	// act
	require.NoError(t, store.Append(ctx, eventstore.BuildEvent("A"), eventstore.BuildEvent("B")))
	_, err = store.Query(ctx, eventstore.Everything())
	require.NoError(t, err)
	_, err = store.Query(ctx, eventstore.AfterEventID("missing"))
	require.ErrorIs(t, err, eventstore.ErrUnknownLastEventID)

	// assert
	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.ElementsMatch(t, []string{
		"eventstore_append_duration_seconds",
		"eventstore_query_duration_seconds",
		"eventstore_events_appended_total",
		"eventstore_events_queried_total",
		"eventstore_errors_total",
	}, names)

	expected := `
# HELP eventstore_events_appended_total Number of events handled by the event store.
# TYPE eventstore_events_appended_total counter
eventstore_events_appended_total{operation="append",status="success"} 2
# HELP eventstore_errors_total Count of event store occurrences.
# TYPE eventstore_errors_total counter
eventstore_errors_total{error_type="unknown_last_event_id",operation="query",status="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(
		registry,
		strings.NewReader(expected),
		"eventstore_events_appended_total",
		"eventstore_errors_total",
	))
}

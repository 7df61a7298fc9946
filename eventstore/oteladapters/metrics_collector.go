package oteladapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// MetricsCollector implements eventstore.ContextualMetricsCollector with an OpenTelemetry meter.
//
// Instruments are created on first use:
//   - RecordDuration: Float64Histogram in seconds
//   - IncrementCounter: Int64Counter
//   - RecordValue: Float64Counter for names ending in "_total", Float64Gauge otherwise
//
// It is safe for concurrent use.
type MetricsCollector struct {
	meter      metric.Meter
	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	sums       map[string]metric.Float64Counter
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsCollector creates a MetricsCollector, the meter should come from your MeterProvider.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		sums:       make(map[string]metric.Float64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), metricName, duration, labels)
}

func (m *MetricsCollector) RecordDurationContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	labels map[string]string,
) {
	histogram := getOrCreate(&m.mu, m.histograms, metricName, func() (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(
			metricName,
			metric.WithDescription("Duration of event store operations"),
			metric.WithUnit("s"),
		)
	})

	if histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(toAttributes(labels)...))
	}
}

func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), metricName, labels)
}

func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	counter := getOrCreate(&m.mu, m.counters, metricName, func() (metric.Int64Counter, error) {
		return m.meter.Int64Counter(metricName, metric.WithDescription("Count of event store occurrences"))
	})

	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
	}
}

func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), metricName, value, labels)
}

func (m *MetricsCollector) RecordValueContext(
	ctx context.Context,
	metricName string,
	value float64,
	labels map[string]string,
) {
	options := metric.WithAttributes(toAttributes(labels)...)

	if strings.HasSuffix(metricName, "_total") {
		sum := getOrCreate(&m.mu, m.sums, metricName, func() (metric.Float64Counter, error) {
			return m.meter.Float64Counter(metricName, metric.WithDescription("Number of events handled by the event store"))
		})

		if sum != nil && value >= 0 {
			sum.Add(ctx, value, options)
		}

		return
	}

	gauge := getOrCreate(&m.mu, m.gauges, metricName, func() (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(metricName, metric.WithDescription("Current value reported by the event store"))
	})

	if gauge != nil {
		gauge.Record(ctx, value, options)
	}
}

// getOrCreate returns the cached instrument or creates it. A failed creation is not cached and yields the zero value.
func getOrCreate[I any](mu *sync.Mutex, cache map[string]I, name string, create func() (I, error)) I {
	mu.Lock()
	defer mu.Unlock()

	if instrument, found := cache[name]; found {
		return instrument
	}

	instrument, err := create()
	if err != nil {
		var zero I
		return zero
	}

	cache[name] = instrument

	return instrument
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollector)(nil)

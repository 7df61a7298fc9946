// Package promadapters provides a Prometheus implementation of eventstore.MetricsCollector.
package promadapters

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// MetricsCollector implements eventstore.MetricsCollector with Prometheus vectors.
//
// Vectors are created and registered on first use, their label names are the keys of the labels of that first call.
// Later calls fill missing labels with "" and drop unknown ones.
//   - RecordDuration: HistogramVec observing seconds
//   - IncrementCounter: CounterVec
//   - RecordValue: CounterVec for names ending in "_total", GaugeVec otherwise
//
// It is safe for concurrent use.
type MetricsCollector struct {
	registerer prometheus.Registerer
	buckets    []float64
	mu         sync.Mutex
	histograms map[string]*vector[*prometheus.HistogramVec]
	counters   map[string]*vector[*prometheus.CounterVec]
	gauges     map[string]*vector[*prometheus.GaugeVec]
	onError    func(error)
}

type vector[V any] struct {
	vec        V
	labelNames []string
}

// Option defines a functional option for configuring MetricsCollector.
type Option func(*MetricsCollector)

// WithBuckets replaces prometheus.DefBuckets for duration histograms.
func WithBuckets(buckets ...float64) Option {
	return func(m *MetricsCollector) {
		if len(buckets) > 0 {
			m.buckets = slices.Clone(buckets)
		}
	}
}

// WithErrorHandler receives registration errors, which are dropped otherwise.
func WithErrorHandler(onError func(error)) Option {
	return func(m *MetricsCollector) {
		if onError != nil {
			m.onError = onError
		}
	}
}

// NewMetricsCollector creates a MetricsCollector registering its vectors with registerer,
// prometheus.DefaultRegisterer if it is nil.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &MetricsCollector{
		registerer: registerer,
		buckets:    prometheus.DefBuckets,
		histograms: make(map[string]*vector[*prometheus.HistogramVec]),
		counters:   make(map[string]*vector[*prometheus.CounterVec]),
		gauges:     make(map[string]*vector[*prometheus.GaugeVec]),
		onError:    func(error) {},
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	v := getOrRegister(m, m.histograms, metric, labels, func(labelNames []string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metric,
			Help:    "Duration of event store operations in seconds.",
			Buckets: m.buckets,
		}, labelNames)
	})

	if v != nil {
		v.vec.With(v.labelsFor(labels)).Observe(duration.Seconds())
	}
}

func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	v := m.counterVec(metric, labels, "Count of event store occurrences.")

	if v != nil {
		v.vec.With(v.labelsFor(labels)).Inc()
	}
}

func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	if strings.HasSuffix(metric, "_total") {
		v := m.counterVec(metric, labels, "Number of events handled by the event store.")

		if v != nil && value >= 0 {
			v.vec.With(v.labelsFor(labels)).Add(value)
		}

		return
	}

	v := getOrRegister(m, m.gauges, metric, labels, func(labelNames []string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metric,
			Help: "Current value reported by the event store.",
		}, labelNames)
	})

	if v != nil {
		v.vec.With(v.labelsFor(labels)).Set(value)
	}
}

func (m *MetricsCollector) counterVec(metric string, labels map[string]string, help string) *vector[*prometheus.CounterVec] {
	return getOrRegister(m, m.counters, metric, labels, func(labelNames []string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: metric, Help: help}, labelNames)
	})
}

func getOrRegister[V prometheus.Collector](
	m *MetricsCollector,
	cache map[string]*vector[V],
	metric string,
	labels map[string]string,
	create func(labelNames []string) V,
) *vector[V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, found := cache[metric]; found {
		return v
	}

	labelNames := slices.Sorted(maps.Keys(labels))
	vec := create(labelNames)

	if err := m.registerer.Register(vec); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			m.onError(err)
			return nil
		}

		existing, ok := alreadyRegistered.ExistingCollector.(V)
		if !ok {
			m.onError(err)
			return nil
		}

		vec = existing
	}

	v := &vector[V]{vec: vec, labelNames: labelNames}
	cache[metric] = v

	return v
}

func (v *vector[V]) labelsFor(labels map[string]string) prometheus.Labels {
	result := make(prometheus.Labels, len(v.labelNames))
	for _, name := range v.labelNames {
		result[name] = labels[name]
	}

	return result
}

var _ eventstore.MetricsCollector = (*MetricsCollector)(nil)

// Package observable provides an EventStore decorator that adds tracing, metrics and logging
// around any eventstore.EventStore, e.g. one of memengine or fileengine.
//
// The engines only log, everything else is opt-in by wrapping them:
//
//	store, err := observable.NewEventStore(
//		fileStore,
//		observable.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		observable.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//	)
//
// Metrics:
//   - eventstore_query_duration_seconds, eventstore_append_duration_seconds (duration, labels operation and status)
//   - eventstore_events_queried_total, eventstore_events_appended_total (value, labels operation and status)
//   - eventstore_errors_total (counter, labels operation, status and error_type)
package observable

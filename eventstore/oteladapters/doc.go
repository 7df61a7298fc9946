// Package oteladapters provides OpenTelemetry implementations of the eventstore observability interfaces.
//
// They plug into observable.EventStore and into the engines' logger options:
//
//	tracing := oteladapters.NewTracingCollector(tracerProvider.Tracer("eventlog"))
//	metrics := oteladapters.NewMetricsCollector(meterProvider.Meter("eventlog"))
//	logger := oteladapters.NewSlogBridgeLogger("eventlog")
package oteladapters

// Package eventstore provides the core abstractions of an embeddable, append-only event log
// for event-sourced applications.
//
// It defines the Event data model, the closed set of Query variants, the EventStore contract
// shared by all engines, the error definitions, and the observability interfaces.
//
// Engines:
//   - memengine: the in-memory EventLog
//   - fileengine: a durable engine persisting one file per event and replaying them on startup
//   - postgresengine: a durable engine persisting into a PostgreSQL table, replayed the same way
//
// Queries can be composed:
//   - ByAggregateID: events of one aggregate
//   - ByEventType / LikeEventType: events of one type or of types matching a pattern
//   - AfterEventID: a cursor, only events appended after an already seen event
//   - Everything: all events
//   - AllOf: a conjunction of the above
//
// Common usage pattern:
//
//	placed := eventstore.BuildEvent(
//		"com.example.OrderPlaced",
//		eventstore.WithAggregateID("order1"),
//		eventstore.WithPayload(payload))
//
//	err := store.Append(ctx, placed)
//	if err != nil {
//		// handle error
//	}
//
//	events, err := store.Query(ctx, eventstore.AllOf(
//		eventstore.AfterEventID(lastSeenID),
//		eventstore.ByAggregateID("order1")))
package eventstore

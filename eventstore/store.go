package eventstore

import "context"

// EventReader retrieves events matching a Query.
type EventReader interface {
	// Query returns all events matching the query in the order they were appended.
	// A query with an unknown LastEventIDQuery fails with ErrUnknownLastEventID.
	Query(ctx context.Context, query Query) (Events, error)
}

// EventWriter appends events.
type EventWriter interface {
	// Append appends one or multiple events atomically, in the given order.
	// Either the whole batch becomes visible to readers or nothing of it.
	Append(ctx context.Context, event Event, additionalEvents ...Event) error

	// AppendWithChecks is reserved for an append with integrity checks.
	// No checks are defined yet, all engines return ErrNotImplemented.
	AppendWithChecks(ctx context.Context, events ...Event) error
}

// EventStore is the contract shared by all engines.
type EventStore interface {
	EventReader
	EventWriter
}

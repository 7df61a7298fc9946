package postgresengine

import (
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithTableName sets the table name for the EventStore, the default is "events".
func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return eventstore.ErrEmptyEventsTableName
		}

		if !tableNamePattern.MatchString(tableName) {
			return eventstore.ErrInvalidEventsTableName
		}

		es.eventTableName = tableName

		return nil
	}
}

// WithPayloadSerializer replaces the default jsonpayload.Serializer.
func WithPayloadSerializer(serializer eventstore.PayloadSerializer) Option {
	return func(es *EventStore) error {
		if serializer == nil {
			return eventstore.ErrNilPayloadSerializer
		}

		es.serializer = serializer

		return nil
	}
}

// WithLogger sets the logger for the EventStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Replayed and persisted event counts, durations (production-safe)
// Error level: Failures that cause operation failures.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.contextualLogger = logger
		return nil
	}
}

// WithClock replaces time.Now as the source of timestamps for events appended without one.
func WithClock(clock func() time.Time) Option {
	return func(es *EventStore) error {
		if clock != nil {
			es.clock = clock
		}

		return nil
	}
}

package fileengine

import (
	"os"
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

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
//
// Debug level: operation timings
// Info level: replayed and persisted event counts
// Error level: failed replays and persistence failures.
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

// WithFileMode sets the permissions of event files, the default is 0o644.
func WithFileMode(mode os.FileMode) Option {
	return func(es *EventStore) error {
		if mode.Perm()&0o600 != 0o600 {
			return eventstore.ErrInvalidFileMode
		}

		es.fileMode = mode.Perm()

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

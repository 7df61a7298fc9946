package memengine

import (
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// Option defines a functional option for configuring EventLog.
type Option func(*EventLog) error

// WithInitialCapacity preallocates room for capacity events.
func WithInitialCapacity(capacity int) Option {
	return func(el *EventLog) error {
		if capacity < 0 {
			return eventstore.ErrInvalidInitialCapacity
		}

		el.events = make([]eventstore.Event, 0, capacity)
		el.positions = make(map[eventstore.EventID]position, capacity)

		return nil
	}
}

// WithLogger sets the logger for the EventLog.
//
// Debug level: operation timings
// Info level: event counts of appends and queries
// Error level: rejected appends and failed queries.
func WithLogger(logger eventstore.Logger) Option {
	return func(el *EventLog) error {
		el.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventLog.
// It receives the same messages as the Logger, together with the context of the operation.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(el *EventLog) error {
		el.contextualLogger = logger
		return nil
	}
}

// WithClock replaces time.Now as the source of timestamps for events appended without one.
func WithClock(clock func() time.Time) Option {
	return func(el *EventLog) error {
		if clock != nil {
			el.clock = clock
		}

		return nil
	}
}

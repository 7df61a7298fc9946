package eventstore

import (
	"github.com/google/uuid"
)

// EventID is the opaque unique identifier of an Event.
//
// Two EventIDs are equal if and only if their underlying strings are equal,
// which makes EventID usable as a map key.
type EventID struct {
	id string
}

// NewEventID generates a fresh, time-ordered EventID.
func NewEventID() EventID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source fails, fall back to a v4 id then.
		return EventID{id: uuid.NewString()}
	}

	return EventID{id: id.String()}
}

// EventIDFromString reconstructs an EventID from the value previously returned by String.
func EventIDFromString(id string) EventID {
	return EventID{id: id}
}

func (e EventID) String() string {
	return e.id
}

// IsZero reports whether the EventID was never assigned.
func (e EventID) IsZero() bool {
	return e.id == ""
}

// Event is the immutable unit of data stored in an EventStore.
//
// While its properties are exported, it should be constructed with BuildEvent so that it gets a fresh EventID.
// Once appended, an Event is never changed by the EventStore.
type Event struct {
	ID EventID

	// Type is the logical kind of the event, conventionally namespaced, e.g. "com.example.OrderPlaced".
	Type string

	// AggregateID references the domain entity the event relates to, empty for global events.
	AggregateID string

	// Payload is arbitrary data bound to the event, nil if there is none.
	// It must be serializable by the PayloadSerializer of durable engines.
	// Serialized payloads should stay below 32KB.
	Payload any

	// Creator is optional audit metadata, it is not interpreted by the EventStore.
	Creator string

	// Timestamp in epoch milliseconds. Engines set it to the append time if it is zero.
	Timestamp int64
}

// HasAggregateID reports whether the Event relates to an aggregate.
func (e Event) HasAggregateID() bool {
	return e.AggregateID != ""
}

// Validate checks the structural validity of the Event: it needs an ID and a Type.
func (e Event) Validate() error {
	if e.ID.IsZero() {
		return ErrEmptyEventID
	}

	if e.Type == "" {
		return ErrEmptyEventType
	}

	return nil
}

// ValidateEvents validates all events of a batch.
func ValidateEvents(events Events) error {
	for _, event := range events {
		if err := event.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// EventOption configures an Event built with BuildEvent.
type EventOption func(*Event)

// BuildEvent is a factory method for Event.
//
// It generates a fresh EventID unless WithEventID is supplied.
func BuildEvent(eventType string, options ...EventOption) Event {
	event := Event{
		Type: eventType,
	}

	for _, option := range options {
		option(&event)
	}

	if event.ID.IsZero() {
		event.ID = NewEventID()
	}

	return event
}

// WithEventID sets a known EventID, e.g. one restored with EventIDFromString.
func WithEventID(id EventID) EventOption {
	return func(e *Event) {
		e.ID = id
	}
}

// WithAggregateID sets the AggregateID of the Event.
func WithAggregateID(aggregateID string) EventOption {
	return func(e *Event) {
		e.AggregateID = aggregateID
	}
}

// WithPayload sets the Payload of the Event.
func WithPayload(payload any) EventOption {
	return func(e *Event) {
		e.Payload = payload
	}
}

// WithCreator sets the Creator of the Event.
func WithCreator(creator string) EventOption {
	return func(e *Event) {
		e.Creator = creator
	}
}

// WithTimestamp sets the Timestamp (epoch milliseconds) of the Event.
func WithTimestamp(timestamp int64) EventOption {
	return func(e *Event) {
		e.Timestamp = timestamp
	}
}

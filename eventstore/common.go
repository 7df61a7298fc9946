package eventstore

import (
	"errors"
)

var ErrUnknownLastEventID = errors.New("last event id is unknown to this event log")
var ErrNotImplemented = errors.New("operation is not implemented")
var ErrPollTimeout = errors.New("timed out waiting for event")
var ErrEmptyEventType = errors.New("empty event type supplied")
var ErrEmptyEventID = errors.New("empty event id supplied")
var ErrUnsupportedQuery = errors.New("unsupported query")
var ErrEmptyRootDirectory = errors.New("empty root directory supplied")
var ErrNilPayloadSerializer = errors.New("nil payload serializer supplied")
var ErrNilEventStore = errors.New("nil event store supplied")
var ErrInvalidInitialCapacity = errors.New("initial capacity must not be negative")
var ErrPersistingEventFailed = errors.New("persisting event failed")
var ErrReplayingEventsFailed = errors.New("replaying persisted events failed")
var ErrInvalidFileMode = errors.New("file mode must grant the owner read and write permission")
var ErrEventFileExists = errors.New("event file already exists")
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyEventsTableName = errors.New("empty eventsTableName supplied")
var ErrInvalidEventsTableName = errors.New("events table name must be a plain SQL identifier")

// Events is an alias type for a slice of Event
type Events = []Event

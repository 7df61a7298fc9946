package memengine

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

const (
	defaultInitialCapacity  = 10
	logMsgQueryCompleted    = "query completed"
	logMsgQueryFailed       = "query failed"
	logMsgEventsAppended    = "events appended"
	logMsgAppendRejected    = "append rejected"
	logMsgOperation         = "eventlog operation: "
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrOperation        = "operation"
	logAttrEventCount       = "event_count"
	logAttrStartPosition    = "start_position"
	logAttrLogLength        = "log_length"
	logAttrDurationMS       = "duration_ms"
	logActionQuery          = "query"
	logActionAppend         = "append"
	logActionAppendChecked  = "append_with_checks"
	logMsgOperationFinished = "finished "
)

// EventLog is the in-memory engine: an ordered sequence of events plus an index from EventID to position.
//
// Appends are serialized by an exclusive lock, queries only hold a shared lock while they resolve
// the start position and then scan a snapshot of the log without any lock.
// This is safe because appended events are never modified.
type EventLog struct {
	mu               sync.RWMutex
	events           []eventstore.Event
	positions        map[eventstore.EventID]position
	clock            func() time.Time
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
}

// NewEventLog creates an empty EventLog with optional configuration.
func NewEventLog(options ...Option) (*EventLog, error) {
	el := &EventLog{
		events:    make([]eventstore.Event, 0, defaultInitialCapacity),
		positions: make(map[eventstore.EventID]position, defaultInitialCapacity),
		clock:     time.Now,
	}

	for _, option := range options {
		if err := option(el); err != nil {
			return nil, err
		}
	}

	return el, nil
}

// Query returns all events matching the query in the order they were appended.
//
// The returned slice is a copy, modifying it does not affect the EventLog.
// A LastEventIDQuery with an EventID that was never appended fails with eventstore.ErrUnknownLastEventID.
func (el *EventLog) Query(ctx context.Context, query eventstore.Query) (eventstore.Events, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		el.logError(ctx, logMsgQueryFailed, err, logAttrQuery, queryString(query))
		return nil, err
	}

	snapshot, startPosition, resolveErr := el.resolve(query)
	if resolveErr != nil {
		el.logError(ctx, logMsgQueryFailed, resolveErr, logAttrQuery, queryString(query))
		return nil, resolveErr
	}

	result := make(eventstore.Events, 0)

	if startPosition < len(snapshot) {
		for _, event := range snapshot[startPosition:] {
			if matches(event, query) {
				result = append(result, event)
			}
		}
	}

	duration := time.Since(start)
	el.logDuration(ctx, logActionQuery, duration)
	el.logOperation(
		ctx,
		logMsgQueryCompleted,
		logAttrQuery, queryString(query),
		logAttrEventCount, len(result),
		logAttrStartPosition, startPosition,
		logAttrLogLength, len(snapshot),
		logAttrDurationMS, toMilliseconds(duration),
	)

	return result, nil
}

// resolve reads the log length and the index together under the shared lock,
// so the start position always refers to the returned snapshot.
func (el *EventLog) resolve(query eventstore.Query) ([]eventstore.Event, position, error) {
	el.mu.RLock()
	defer el.mu.RUnlock()

	snapshot := el.events[:len(el.events):len(el.events)]

	startPosition, err := resolveStartPosition(query, 0, el.positions)
	if err != nil {
		return nil, 0, err
	}

	return snapshot, startPosition, nil
}

// Append appends one or multiple events atomically in the given order.
//
// Each event gets the next position, events with a zero Timestamp get the current time.
// Duplicate EventIDs are not rejected, the index then points to the latest occurrence.
func (el *EventLog) Append(ctx context.Context, event eventstore.Event, additionalEvents ...eventstore.Event) error {
	allEvents := eventstore.Events{event}
	allEvents = append(allEvents, additionalEvents...)

	return el.AppendBatch(ctx, allEvents)
}

// AppendBatch is Append for an already assembled batch, an empty batch is a no-op.
func (el *EventLog) AppendBatch(ctx context.Context, events eventstore.Events) error {
	return el.appendBatch(ctx, events, true)
}

// Restore appends events that were persisted before, exactly as they are.
// Unlike AppendBatch it never touches timestamps, so replaying the same data always yields the same log.
func (el *EventLog) Restore(ctx context.Context, events eventstore.Events) error {
	return el.appendBatch(ctx, events, false)
}

func (el *EventLog) appendBatch(ctx context.Context, events eventstore.Events, fillTimestamps bool) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		el.logError(ctx, logMsgAppendRejected, err, logAttrEventCount, len(events))
		return err
	}

	if err := eventstore.ValidateEvents(events); err != nil {
		el.logError(ctx, logMsgAppendRejected, err, logAttrEventCount, len(events))
		return err
	}

	el.mu.Lock()

	appendPosition := len(el.events)
	for _, event := range events {
		if fillTimestamps && event.Timestamp == 0 {
			event.Timestamp = el.clock().UnixMilli()
		}

		el.events = append(el.events, event)
		el.positions[event.ID] = appendPosition
		appendPosition++
	}

	el.mu.Unlock()

	duration := time.Since(start)
	el.logDuration(ctx, logActionAppend, duration)
	el.logOperation(
		ctx,
		logMsgEventsAppended,
		logAttrEventCount, len(events),
		logAttrLogLength, appendPosition,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

// AppendWithChecks is reserved for an append with integrity checks, which are not defined yet.
func (el *EventLog) AppendWithChecks(ctx context.Context, events ...eventstore.Event) error {
	el.logError(ctx, logMsgAppendRejected, eventstore.ErrNotImplemented,
		logAttrEventCount, len(events), logAttrOperation, logActionAppendChecked)

	return eventstore.ErrNotImplemented
}

// Len returns the number of appended events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()

	return len(el.events)
}

func queryString(query eventstore.Query) string {
	if query == nil {
		return "<nil>"
	}

	return query.String()
}

var _ eventstore.EventStore = (*EventLog)(nil)

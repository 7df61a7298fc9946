package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

const (
	spanNameQuery            = "eventstore.query"
	spanNameAppend           = "eventstore.append"
	spanNameAppendWithChecks = "eventstore.append_with_checks"

	metricQueryDuration  = "eventstore_query_duration_seconds"
	metricAppendDuration = "eventstore_append_duration_seconds"
	metricEventsQueried  = "eventstore_events_queried_total"
	metricEventsAppended = "eventstore_events_appended_total"
	metricErrors         = "eventstore_errors_total"

	operationQuery            = "query"
	operationAppend           = "append"
	operationAppendWithChecks = "append_with_checks"

	statusSuccess  = "success"
	statusError    = "error"
	statusCanceled = "canceled"
	statusTimeout  = "timeout"

	errorTypeUnknownLastEventID      = "unknown_last_event_id"
	errorTypeContextCanceled         = "context_canceled"
	errorTypeContextDeadlineExceeded = "context_deadline_exceeded"
	errorTypeNotImplemented          = "not_implemented"
	errorTypeOther                   = "other"

	attrOperation  = "operation"
	attrStatus     = "status"
	attrErrorType  = "error_type"
	attrEventCount = "event_count"
	attrEventType  = "event_type"
	attrQuery      = "query"
	attrDurationMS = "duration_ms"
	attrError      = "error"

	logMsgOperationStarted   = "eventstore operation started: "
	logMsgOperationSucceeded = "eventstore operation succeeded: "
	logMsgOperationFailed    = "eventstore operation failed: "
)

// EventStore decorates an eventstore.EventStore with tracing, metrics and logging.
// Without any option it only delegates.
type EventStore struct {
	inner            eventstore.EventStore
	tracingCollector eventstore.TracingCollector
	metricsCollector eventstore.MetricsCollector
	contextualLogger eventstore.ContextualLogger
	logger           eventstore.Logger
}

// NewEventStore wraps inner.
func NewEventStore(inner eventstore.EventStore, options ...Option) (*EventStore, error) {
	if inner == nil {
		return nil, eventstore.ErrNilEventStore
	}

	es := &EventStore{inner: inner}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Query delegates to the wrapped EventStore inside an "eventstore.query" span.
func (es *EventStore) Query(ctx context.Context, query eventstore.Query) (eventstore.Events, error) {
	start := time.Now()
	op := es.startOperation(ctx, spanNameQuery, operationQuery, map[string]string{
		attrOperation: operationQuery,
		attrQuery:     queryString(query),
	})

	events, err := es.inner.Query(op.ctx, query)

	duration := time.Since(start)
	if err != nil {
		op.finishError(err, duration, metricQueryDuration)
		return events, err
	}

	op.finishSuccess(len(events), duration, metricQueryDuration, metricEventsQueried)

	return events, nil
}

// Append delegates to the wrapped EventStore inside an "eventstore.append" span.
func (es *EventStore) Append(ctx context.Context, event eventstore.Event, additionalEvents ...eventstore.Event) error {
	start := time.Now()
	eventCount := 1 + len(additionalEvents)
	op := es.startOperation(ctx, spanNameAppend, operationAppend, map[string]string{
		attrOperation:  operationAppend,
		attrEventCount: itoa(eventCount),
		attrEventType:  event.Type,
	})

	err := es.inner.Append(op.ctx, event, additionalEvents...)

	duration := time.Since(start)
	if err != nil {
		op.finishError(err, duration, metricAppendDuration)
		return err
	}

	op.finishSuccess(eventCount, duration, metricAppendDuration, metricEventsAppended)

	return nil
}

// AppendWithChecks delegates to the wrapped EventStore inside an "eventstore.append_with_checks" span.
func (es *EventStore) AppendWithChecks(ctx context.Context, events ...eventstore.Event) error {
	start := time.Now()
	attrs := map[string]string{
		attrOperation:  operationAppendWithChecks,
		attrEventCount: itoa(len(events)),
	}

	if len(events) > 0 {
		attrs[attrEventType] = events[0].Type
	}

	op := es.startOperation(ctx, spanNameAppendWithChecks, operationAppendWithChecks, attrs)

	err := es.inner.AppendWithChecks(op.ctx, events...)

	duration := time.Since(start)
	if err != nil {
		op.finishError(err, duration, metricAppendDuration)
		return err
	}

	op.finishSuccess(len(events), duration, metricAppendDuration, metricEventsAppended)

	return nil
}

// Unwrap returns the decorated EventStore.
func (es *EventStore) Unwrap() eventstore.EventStore {
	return es.inner
}

func queryString(query eventstore.Query) string {
	if query == nil {
		return "<nil>"
	}

	return query.String()
}

var _ eventstore.EventStore = (*EventStore)(nil)

package eventstore

import (
	"iter"
	"regexp"
	"slices"
	"strings"
)

/***** Query *****/

// Query describes which events to retrieve from an EventStore.
//
// It is a closed set of variants, it can not be implemented outside this package:
//   - AggregateIDQuery: exact match on the AggregateID
//   - EventTypeQuery: exact match on the Type
//   - LikeEventTypeQuery: the Type matches a LIKE pattern
//   - LastEventIDQuery: a cursor, only events appended after the given EventID are considered
//   - EverythingQuery: matches every event
//   - AllOfQuery: an event matches if it matches all sub-queries
//
// Engines evaluate a Query with an exhaustive type switch over these variants.
// A Query is immutable once constructed.
type Query interface {
	String() string
	isQuery()
}

/***** AggregateIDQuery *****/

type AggregateIDQuery struct {
	aggregateID string
}

// ByAggregateID creates a Query matching all events of one aggregate.
func ByAggregateID(aggregateID string) AggregateIDQuery {
	return AggregateIDQuery{aggregateID: aggregateID}
}

func (q AggregateIDQuery) AggregateID() string {
	return q.aggregateID
}

func (q AggregateIDQuery) String() string {
	return "aggregateId=" + q.aggregateID
}

func (AggregateIDQuery) isQuery() {}

/***** EventTypeQuery *****/

type EventTypeQuery struct {
	eventType string
}

// ByEventType creates a Query matching all events of exactly one type.
func ByEventType(eventType string) EventTypeQuery {
	return EventTypeQuery{eventType: eventType}
}

func (q EventTypeQuery) EventType() string {
	return q.eventType
}

func (q EventTypeQuery) String() string {
	return "type=" + q.eventType
}

func (EventTypeQuery) isQuery() {}

/***** LikeEventTypeQuery *****/

type LikeEventTypeQuery struct {
	pattern string
	matcher *regexp.Regexp
}

// LikeEventType creates a Query matching all events whose type matches the pattern as a whole.
//
// Wildcards:
//   - '%' or '*' match any run of characters, including none
//   - '_' or '?' match exactly one character
//
// All other characters match themselves.
func LikeEventType(pattern string) LikeEventTypeQuery {
	return LikeEventTypeQuery{
		pattern: pattern,
		matcher: compileLikePattern(pattern),
	}
}

func (q LikeEventTypeQuery) Pattern() string {
	return q.pattern
}

// Matches reports whether the eventType matches the pattern.
func (q LikeEventTypeQuery) Matches(eventType string) bool {
	if q.matcher == nil {
		return eventType == q.pattern
	}

	return q.matcher.MatchString(eventType)
}

func (q LikeEventTypeQuery) String() string {
	return "typeLike=" + q.pattern
}

func (LikeEventTypeQuery) isQuery() {}

func compileLikePattern(pattern string) *regexp.Regexp {
	var expr strings.Builder
	expr.WriteString(`^(?s:`)

	for _, r := range pattern {
		switch r {
		case '%', '*':
			expr.WriteString(`.*`)
		case '_', '?':
			expr.WriteString(`.`)
		default:
			expr.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	expr.WriteString(`)$`)

	// only quoted literals and wildcards are written, so this can not fail
	return regexp.MustCompile(expr.String())
}

/***** LastEventIDQuery *****/

type LastEventIDQuery struct {
	lastEventID EventID
}

// AfterEventID creates a cursor Query which only considers events appended after the event with lastEventID.
//
// It is not a per-event filter. Querying with an EventID unknown to the EventStore fails with ErrUnknownLastEventID.
func AfterEventID(lastEventID EventID) LastEventIDQuery {
	return LastEventIDQuery{lastEventID: lastEventID}
}

func (q LastEventIDQuery) LastEventID() EventID {
	return q.lastEventID
}

func (q LastEventIDQuery) String() string {
	return "after=" + q.lastEventID.String()
}

func (LastEventIDQuery) isQuery() {}

/***** EverythingQuery *****/

type EverythingQuery struct{}

// Everything creates a Query matching all events.
func Everything() EverythingQuery {
	return EverythingQuery{}
}

func (EverythingQuery) String() string {
	return "everything"
}

func (EverythingQuery) isQuery() {}

/***** AllOfQuery *****/

type AllOfQuery struct {
	queries []Query
}

// AllOf creates a conjunction: an event matches if it matches every sub-query.
//
// Cursor sub-queries (LastEventIDQuery) move the start position forward instead of filtering,
// if there are several, the one furthest in the log wins.
// AllOf without sub-queries matches everything.
func AllOf(queries ...Query) AllOfQuery {
	return AllOfQuery{queries: slices.Clip(slices.Clone(queries))}
}

// Queries returns a copy of the sub-queries in their original order.
func (q AllOfQuery) Queries() []Query {
	return slices.Clone(q.queries)
}

// All iterates over the sub-queries in their original order without copying them.
func (q AllOfQuery) All() iter.Seq[Query] {
	return slices.Values(q.queries)
}

// Len returns the number of sub-queries.
func (q AllOfQuery) Len() int {
	return len(q.queries)
}

func (q AllOfQuery) String() string {
	parts := make([]string, 0, len(q.queries))
	for _, query := range q.queries {
		parts = append(parts, query.String())
	}

	return "allOf(" + strings.Join(parts, ", ") + ")"
}

func (AllOfQuery) isQuery() {}

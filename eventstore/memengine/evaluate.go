package memengine

import (
	"fmt"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

type position = int

// resolveStartPosition walks the query tree once, only looking at cursor variants.
// Every cursor can only move the start position forward, so the cursor furthest in the log wins.
// It has no side effects.
func resolveStartPosition(
	query eventstore.Query,
	start position,
	positions map[eventstore.EventID]position,
) (position, error) {

	switch q := query.(type) {
	case eventstore.LastEventIDQuery:
		lastEventPosition, found := positions[q.LastEventID()]
		if !found {
			return 0, fmt.Errorf("%w: %q", eventstore.ErrUnknownLastEventID, q.LastEventID())
		}

		return max(start, lastEventPosition+1), nil

	case eventstore.AllOfQuery:
		var err error

		for subQuery := range q.All() {
			start, err = resolveStartPosition(subQuery, start, positions)
			if err != nil {
				return 0, err
			}
		}

		return start, nil

	case eventstore.AggregateIDQuery,
		eventstore.EventTypeQuery,
		eventstore.LikeEventTypeQuery,
		eventstore.EverythingQuery:

		return start, nil

	default:
		return 0, fmt.Errorf("%w: %T", eventstore.ErrUnsupportedQuery, query)
	}
}

// matches evaluates the non-cursor part of the query tree against one event.
// Cursor variants always match here, they were already consumed by resolveStartPosition.
func matches(event eventstore.Event, query eventstore.Query) bool {
	switch q := query.(type) {
	case eventstore.AggregateIDQuery:
		return event.HasAggregateID() && event.AggregateID == q.AggregateID()

	case eventstore.EventTypeQuery:
		return event.Type == q.EventType()

	case eventstore.LikeEventTypeQuery:
		return q.Matches(event.Type)

	case eventstore.LastEventIDQuery:
		return true

	case eventstore.EverythingQuery:
		return true

	case eventstore.AllOfQuery:
		for subQuery := range q.All() {
			if !matches(event, subQuery) {
				return false
			}
		}

		return true

	default:
		// unreachable, resolveStartPosition rejects unsupported queries
		return false
	}
}

package postgresengine

import (
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

// eventRow is the table representation of one event, empty strings are stored as NULL.
type eventRow struct {
	sequenceNumber int64
	eventID        string
	eventType      string
	aggregateID    sql.NullString
	payloadAsJSON  sql.NullString
	creator        sql.NullString
	timestamp      int64
}

func eventRowFrom(event eventstore.Event, serializer eventstore.PayloadSerializer) (eventRow, error) {
	row := eventRow{
		eventID:     event.ID.String(),
		eventType:   event.Type,
		aggregateID: nullable(event.AggregateID),
		creator:     nullable(event.Creator),
		timestamp:   event.Timestamp,
	}

	if event.Payload != nil {
		payloadJSON, err := serializer.SerializePayload(event.Payload)
		if err != nil {
			return eventRow{}, fmt.Errorf("serializing payload failed: %w", err)
		}

		row.payloadAsJSON = sql.NullString{String: string(payloadJSON), Valid: true}
	}

	return row, nil
}

func (r eventRow) record() goqu.Record {
	return goqu.Record{
		colEventID:       r.eventID,
		colEventType:     r.eventType,
		colAggregateID:   valueOrNil(r.aggregateID),
		colPayloadAsJSON: valueOrNil(r.payloadAsJSON),
		colCreator:       valueOrNil(r.creator),
		colTimestamp:     r.timestamp,
	}
}

func (r eventRow) toEvent(serializer eventstore.PayloadSerializer) (eventstore.Event, error) {
	event := eventstore.Event{
		ID:          eventstore.EventIDFromString(r.eventID),
		Type:        r.eventType,
		AggregateID: r.aggregateID.String,
		Creator:     r.creator.String,
		Timestamp:   r.timestamp,
	}

	if err := event.Validate(); err != nil {
		return eventstore.Event{}, err
	}

	if r.payloadAsJSON.Valid {
		payload, err := serializer.DeserializePayload([]byte(r.payloadAsJSON.String))
		if err != nil {
			return eventstore.Event{}, fmt.Errorf("deserializing payload failed: %w", err)
		}

		event.Payload = payload
	}

	return event, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func valueOrNil(s sql.NullString) any {
	if !s.Valid {
		return nil
	}

	return s.String
}

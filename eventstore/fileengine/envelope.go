package fileengine

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the on-disk representation of one event.
type envelope struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	AggregateID   *string `json:"aggregateId"`
	PayloadAsJSON *string `json:"payloadAsJson"`
	Creator       *string `json:"creator"`
	Timestamp     int64   `json:"timestamp"`
}

func encodeEvent(event eventstore.Event, serializer eventstore.PayloadSerializer) ([]byte, error) {
	env := envelope{
		ID:          event.ID.String(),
		Type:        event.Type,
		AggregateID: optional(event.AggregateID),
		Creator:     optional(event.Creator),
		Timestamp:   event.Timestamp,
	}

	if event.Payload != nil {
		payloadJSON, err := serializer.SerializePayload(event.Payload)
		if err != nil {
			return nil, fmt.Errorf("serializing payload failed: %w", err)
		}

		payload := string(payloadJSON)
		env.PayloadAsJSON = &payload
	}

	return json.Marshal(env)
}

func decodeEvent(data []byte, serializer eventstore.PayloadSerializer) (eventstore.Event, error) {
	var env envelope

	if err := json.Unmarshal(data, &env); err != nil {
		return eventstore.Event{}, fmt.Errorf("decoding envelope failed: %w", err)
	}

	event := eventstore.Event{
		ID:          eventstore.EventIDFromString(env.ID),
		Type:        env.Type,
		AggregateID: valueOf(env.AggregateID),
		Creator:     valueOf(env.Creator),
		Timestamp:   env.Timestamp,
	}

	if err := event.Validate(); err != nil {
		return eventstore.Event{}, err
	}

	if env.PayloadAsJSON != nil {
		payload, err := serializer.DeserializePayload([]byte(*env.PayloadAsJSON))
		if err != nil {
			return eventstore.Event{}, fmt.Errorf("deserializing payload failed: %w", err)
		}

		event.Payload = payload
	}

	return event, nil
}

// optional maps the empty string to null.
func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

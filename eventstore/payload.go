package eventstore

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadCast is the umbrella error for all failures of PayloadAs.
	ErrPayloadCast = errors.New("payload cast failed")

	// ErrNilPayload is returned when PayloadAs is called on an Event without a payload.
	ErrNilPayload = fmt.Errorf("%w: nil payload", ErrPayloadCast)

	// ErrPayloadTypeMismatch is returned when the payload is not of the requested type.
	ErrPayloadTypeMismatch = fmt.Errorf("%w: payload type mismatch", ErrPayloadCast)
)

// PayloadSerializer encodes and decodes the opaque Payload of an Event.
// Durable engines delegate payload (de)serialization to it and never interpret the produced bytes.
type PayloadSerializer interface {
	SerializePayload(payload any) ([]byte, error)
	DeserializePayload(data []byte) (any, error)
}

// PayloadAs returns the Payload of the Event as T.
func PayloadAs[T any](event Event) (T, error) {
	var zero T

	if event.Payload == nil {
		return zero, fmt.Errorf("%w: event %q cannot be cast to %T", ErrNilPayload, event.ID, zero)
	}

	payload, ok := event.Payload.(T)
	if !ok {
		return zero, fmt.Errorf(
			"%w: event %q has payload of %T which cannot be cast to %T",
			ErrPayloadTypeMismatch, event.ID, event.Payload, zero,
		)
	}

	return payload, nil
}

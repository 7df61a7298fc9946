package eventstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

func Test_BuildEvent_GeneratesUniqueIDs(t *testing.T) {
	first := eventstore.BuildEvent("OrderPlaced")
	second := eventstore.BuildEvent("OrderPlaced")

	assert.False(t, first.ID.IsZero())
	assert.False(t, second.ID.IsZero())
	assert.NotEqual(t, first.ID, second.ID)
}

func Test_BuildEvent_WithOptions(t *testing.T) {
	id := eventstore.EventIDFromString("known-id")

	event := eventstore.BuildEvent(
		"OrderPlaced",
		eventstore.WithEventID(id),
		eventstore.WithAggregateID("order1"),
		eventstore.WithPayload(map[string]any{"amount": 42}),
		eventstore.WithCreator("checkout"),
		eventstore.WithTimestamp(1700000000000),
	)

	assert.Equal(t, id, event.ID)
	assert.Equal(t, "known-id", event.ID.String())
	assert.Equal(t, "OrderPlaced", event.Type)
	assert.Equal(t, "order1", event.AggregateID)
	assert.True(t, event.HasAggregateID())
	assert.Equal(t, map[string]any{"amount": 42}, event.Payload)
	assert.Equal(t, "checkout", event.Creator)
	assert.Equal(t, int64(1700000000000), event.Timestamp)
	assert.NoError(t, event.Validate())
}

func Test_Event_Validate(t *testing.T) {
	tests := []struct {
		name        string
		event       eventstore.Event
		expectedErr error
	}{
		{name: "valid", event: eventstore.BuildEvent("OrderPlaced"), expectedErr: nil},
		{name: "empty_type", event: eventstore.BuildEvent(""), expectedErr: eventstore.ErrEmptyEventType},
		{name: "zero_id", event: eventstore.Event{Type: "OrderPlaced"}, expectedErr: eventstore.ErrEmptyEventID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()

			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.expectedErr)
			assert.ErrorIs(t, eventstore.ValidateEvents(eventstore.Events{eventstore.BuildEvent("A"), tt.event}), tt.expectedErr)
		})
	}
}

func Test_EventID_IsUsableAsMapKey(t *testing.T) {
	id := eventstore.NewEventID()
	index := map[eventstore.EventID]int{id: 1}

	assert.Equal(t, 1, index[eventstore.EventIDFromString(id.String())])
	assert.True(t, eventstore.EventID{}.IsZero())
}

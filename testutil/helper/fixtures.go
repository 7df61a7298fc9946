package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/jsonpayload"
)

const (
	OrderPlacedEventType    = "com.example.OrderPlaced"
	OrderShippedEventType   = "com.example.OrderShipped"
	OrderCancelledEventType = "com.example.OrderCancelled"
	InvoiceIssuedEventType  = "com.example.billing.InvoiceIssued"
)

// OrderPlaced is the payload of an OrderPlaced event.
type OrderPlaced struct {
	OrderID string
	Amount  int
	Items   []string
}

// OrderShipped is the payload of an OrderShipped event.
type OrderShipped struct {
	OrderID string
	Carrier string
}

// NewOrderSerializer returns a jsonpayload.Serializer that knows the order payloads.
func NewOrderSerializer(t testing.TB) *jsonpayload.Serializer {
	t.Helper()

	serializer := jsonpayload.New()
	require.NoError(t, serializer.Register("orderPlaced", OrderPlaced{}))
	require.NoError(t, serializer.Register("orderShipped", OrderShipped{}))

	return serializer
}

// FixedClock returns a clock that always reports the same point in time.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time {
		return now
	}
}

// FixtureOrderPlaced builds an OrderPlaced event for the given order.
func FixtureOrderPlaced(orderID string, amount int) eventstore.Event {
	return eventstore.BuildEvent(
		OrderPlacedEventType,
		eventstore.WithAggregateID(orderID),
		eventstore.WithPayload(OrderPlaced{OrderID: orderID, Amount: amount, Items: []string{"book"}}),
		eventstore.WithCreator("checkout"),
	)
}

// FixtureOrderShipped builds an OrderShipped event for the given order.
func FixtureOrderShipped(orderID string) eventstore.Event {
	return eventstore.BuildEvent(
		OrderShippedEventType,
		eventstore.WithAggregateID(orderID),
		eventstore.WithPayload(OrderShipped{OrderID: orderID, Carrier: "parcel"}),
	)
}

// FixtureOrderCancelled builds an OrderCancelled event without payload.
func FixtureOrderCancelled(orderID string) eventstore.Event {
	return eventstore.BuildEvent(OrderCancelledEventType, eventstore.WithAggregateID(orderID))
}

// FixtureInvoiceIssued builds a global event without an aggregate.
func FixtureInvoiceIssued() eventstore.Event {
	return eventstore.BuildEvent(InvoiceIssuedEventType)
}

// IDsOf returns the EventIDs of the events in order.
func IDsOf(events eventstore.Events) []eventstore.EventID {
	ids := make([]eventstore.EventID, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}

	return ids
}

// TypesOf returns the event types of the events in order.
func TypesOf(events eventstore.Events) []string {
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}

	return types
}

// GivenEventsWereAppended appends the events one by one and fails the test on error.
func GivenEventsWereAppended(t testing.TB, writer eventstore.EventWriter, events ...eventstore.Event) {
	t.Helper()

	for _, event := range events {
		require.NoError(t, writer.Append(t.Context(), event), "error in arranging test data")
	}
}

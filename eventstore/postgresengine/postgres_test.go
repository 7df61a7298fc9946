package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/simple-eventlog-go/eventstore" //nolint:revive
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/postgresengine"
	. "github.com/AntonStoeckl/simple-eventlog-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/simple-eventlog-go/testutil/postgresengine/config"
)

var fakeNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type opener func(ctx context.Context, tableName string) (*postgresengine.EventStore, error)

// openers returns one constructor per supported connection type.
func openers(t *testing.T) map[string]opener {
	t.Helper()

	options := func(tableName string) []postgresengine.Option {
		return []postgresengine.Option{
			postgresengine.WithTableName(tableName),
			postgresengine.WithPayloadSerializer(NewOrderSerializer(t)),
			postgresengine.WithClock(FixedClock(fakeNow)),
		}
	}

	pool := config.PostgresPGXPool(t)
	sqlDB := config.PostgresSQLDB(t)
	sqlxDB := config.PostgresSQLX(t)

	return map[string]opener{
		"pgx.pool": func(ctx context.Context, tableName string) (*postgresengine.EventStore, error) {
			return postgresengine.NewEventStoreFromPGXPool(ctx, pool, options(tableName)...)
		},
		"sql.db": func(ctx context.Context, tableName string) (*postgresengine.EventStore, error) {
			return postgresengine.NewEventStoreFromSQLDB(ctx, sqlDB, options(tableName)...)
		},
		"sqlx.db": func(ctx context.Context, tableName string) (*postgresengine.EventStore, error) {
			return postgresengine.NewEventStoreFromSQLX(ctx, sqlxDB, options(tableName)...)
		},
	}
}

func Test_PostgresEngine_AppendQueryAndReplay(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := t.Context()
			tableName := config.UniqueTableName(t, config.PostgresSQLDB(t))

			es, err := open(ctx, tableName)
			require.NoError(t, err)

			placed := FixtureOrderPlaced("order-1", 3)
			shipped := FixtureOrderShipped("order-1")
			invoice := FixtureInvoiceIssued()

			// act
			require.NoError(t, es.Append(ctx, placed, shipped))
			GivenEventsWereAppended(t, es, invoice)

			reopened, err := open(ctx, tableName)
			require.NoError(t, err)

			// assert
			assert.Equal(t, uint64(3), reopened.Sequence())
			assert.Equal(t, 3, reopened.Len())

			events, err := reopened.Query(ctx, ByAggregateID("order-1"))
			require.NoError(t, err)
			require.Equal(t, []EventID{placed.ID, shipped.ID}, IDsOf(events))
			assert.Equal(t, placed.Type, events[0].Type)
			assert.Equal(t, placed.Creator, events[0].Creator)
			assert.Equal(t, fakeNow.UnixMilli(), events[0].Timestamp)
			assert.Equal(t, placed.Payload, events[0].Payload)

			after, err := reopened.Query(ctx, AfterEventID(placed.ID))
			require.NoError(t, err)
			assert.Equal(t, []EventID{shipped.ID, invoice.ID}, IDsOf(after))

			global, err := reopened.Query(ctx, ByEventType(InvoiceIssuedEventType))
			require.NoError(t, err)
			require.Len(t, global, 1)
			assert.Empty(t, global[0].AggregateID)
			assert.Nil(t, global[0].Payload)
		})
	}
}

func Test_PostgresEngine_AppendIsVisibleToTheWritingStoreImmediately(t *testing.T) {
	// setup
	ctx := t.Context()
	tableName := config.UniqueTableName(t, config.PostgresSQLDB(t))

	es, err := openers(t)["pgx.pool"](ctx, tableName)
	require.NoError(t, err)

	event := FixtureOrderCancelled("order-2")

	// act
	GivenEventsWereAppended(t, es, event)

	// assert
	events, err := es.Query(ctx, Everything())
	require.NoError(t, err)
	assert.Equal(t, []EventID{event.ID}, IDsOf(events))
	assert.Equal(t, uint64(1), es.Sequence())
}

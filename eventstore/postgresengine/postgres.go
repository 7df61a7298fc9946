package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/jsonpayload"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/memengine"
	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName   = "events"
	logMsgReplayCompleted   = "replay completed"
	logMsgReplayFailed      = "replay failed"
	logMsgEventsPersisted   = "events persisted"
	logMsgPersistFailed     = "persisting events failed"
	logMsgAppendRejected    = "append rejected"
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgSQLExecuted       = "executed sql for: "
	logMsgOperation         = "eventstore operation: "
	logMsgOperationFinished = "finished "
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrTableName        = "table_name"
	logAttrEventCount       = "event_count"
	logAttrRowsAffected     = "rows_affected"
	logAttrSequence         = "sequence"
	logAttrOperation        = "operation"
	logAttrDurationMS       = "duration_ms"
	logActionSchema         = "schema"
	logActionReplay         = "replay"
	logActionAppend         = "append"
	logActionAppendChecked  = "append_with_checks"
	colSequenceNumber       = "sequence_number"
	colEventID              = "event_id"
	colEventType            = "event_type"
	colAggregateID          = "aggregate_id"
	colPayloadAsJSON        = "payload_as_json"
	colCreator              = "creator"
	colTimestamp            = "occurred_at"
	dialectPostgres         = "postgres"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

var errRowsAffectedMismatch = errors.New("number of inserted rows does not match the number of events")

// EventStore is the durable engine backed by a PostgreSQL table, see CreateTableSQL for its layout.
//
// On construction the table is created if it does not exist and all rows are replayed in sequence order
// into an in-memory EventLog, which serves all queries.
// Only one EventStore may use a table at a time.
type EventStore struct {
	mu               sync.Mutex
	db               adapters.DBAdapter
	eventTableName   string
	sequence         uint64
	eventLog         *memengine.EventLog
	serializer       eventstore.PayloadSerializer
	clock            func() time.Time
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(ctx context.Context, db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(ctx, adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(ctx context.Context, db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(ctx, adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(ctx context.Context, db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(ctx, adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(ctx context.Context, db adapters.DBAdapter, options ...Option) (*EventStore, error) {
	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
		serializer:     jsonpayload.New(),
		clock:          time.Now,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	eventLog, err := memengine.NewEventLog(
		memengine.WithClock(es.clock),
		memengine.WithLogger(es.logger),
		memengine.WithContextualLogger(es.contextualLogger),
	)
	if err != nil {
		return nil, err
	}

	es.eventLog = eventLog

	if err = es.ensureTable(ctx); err != nil {
		return nil, err
	}

	if err = es.replay(ctx); err != nil {
		return nil, err
	}

	return es, nil
}

// CreateTableSQL returns the statement that creates the events table if it does not exist.
func CreateTableSQL(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	%s bigserial PRIMARY KEY,
	%s text NOT NULL,
	%s text NOT NULL,
	%s text,
	%s text,
	%s text,
	%s bigint NOT NULL
)`,
		tableName,
		colSequenceNumber,
		colEventID,
		colEventType,
		colAggregateID,
		colPayloadAsJSON,
		colCreator,
		colTimestamp,
	)
}

func (es *EventStore) ensureTable(ctx context.Context) error {
	sqlQuery := CreateTableSQL(es.eventTableName)

	start := time.Now()
	_, err := es.db.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, logActionSchema, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgReplayFailed, err, logAttrTableName, es.eventTableName)
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	return nil
}

func (es *EventStore) replay(ctx context.Context) error {
	start := time.Now()

	sqlQuery, err := es.buildSelectQuery()
	if err != nil {
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	rows, err := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, logActionReplay, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgReplayFailed, err, logAttrTableName, es.eventTableName)
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	events, lastSequence, err := es.processRows(rows)
	es.closeRows(ctx, rows)

	if err != nil {
		es.logError(ctx, logMsgReplayFailed, err, logAttrTableName, es.eventTableName)
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	if err = es.eventLog.Restore(ctx, events); err != nil {
		return errors.Join(eventstore.ErrReplayingEventsFailed, err)
	}

	es.sequence = lastSequence

	duration := time.Since(start)
	es.logDuration(ctx, logActionReplay, duration)
	es.logOperation(
		ctx,
		logMsgReplayCompleted,
		logAttrTableName, es.eventTableName,
		logAttrEventCount, len(events),
		logAttrSequence, es.sequence,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

func (es *EventStore) processRows(rows adapters.DBRows) (eventstore.Events, uint64, error) {
	var row eventRow
	var lastSequence uint64

	events := make(eventstore.Events, 0)

	for rows.Next() {
		if err := rows.Scan(
			&row.sequenceNumber,
			&row.eventID,
			&row.eventType,
			&row.aggregateID,
			&row.payloadAsJSON,
			&row.creator,
			&row.timestamp,
		); err != nil {
			return nil, 0, err
		}

		event, err := row.toEvent(es.serializer)
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", row.sequenceNumber, err)
		}

		events = append(events, event)
		lastSequence = uint64(row.sequenceNumber) //nolint:gosec // bigserial starts at 1
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, lastSequence, nil
}

func (es *EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		es.logError(ctx, logMsgCloseRowsFailed, err)
	}
}

// Query returns all events matching the query in append order, see memengine.EventLog.Query.
func (es *EventStore) Query(ctx context.Context, query eventstore.Query) (eventstore.Events, error) {
	return es.eventLog.Query(ctx, query)
}

// Append persists one or multiple events in the given order and then makes them visible to queries.
//
// All events of the call are inserted with a single statement, so either all of them are persisted or none.
func (es *EventStore) Append(ctx context.Context, event eventstore.Event, additionalEvents ...eventstore.Event) error {
	allEvents := eventstore.Events{event}
	allEvents = append(allEvents, additionalEvents...)

	return es.AppendBatch(ctx, allEvents)
}

// AppendBatch is Append for an already assembled batch, an empty batch is a no-op.
func (es *EventStore) AppendBatch(ctx context.Context, events eventstore.Events) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		es.logError(ctx, logMsgAppendRejected, err, logAttrEventCount, len(events))
		return err
	}

	if err := eventstore.ValidateEvents(events); err != nil {
		es.logError(ctx, logMsgAppendRejected, err, logAttrEventCount, len(events))
		return err
	}

	if len(events) == 0 {
		return nil
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	persisted := make(eventstore.Events, 0, len(events))

	for _, event := range events {
		if event.Timestamp == 0 {
			event.Timestamp = es.clock().UnixMilli()
		}

		persisted = append(persisted, event)
	}

	sqlQuery, err := es.buildInsertQuery(persisted)
	if err != nil {
		es.logError(ctx, logMsgPersistFailed, err, logAttrEventCount, len(events))
		return errors.Join(eventstore.ErrPersistingEventFailed, err)
	}

	sequence, err := es.executeInsert(ctx, sqlQuery, len(persisted))
	if err != nil {
		es.logError(ctx, logMsgPersistFailed, err, logAttrEventCount, len(events), logAttrQuery, sqlQuery)
		return errors.Join(eventstore.ErrPersistingEventFailed, err)
	}

	// Once the rows are committed the batch must reach memory, even if the caller gave up meanwhile.
	if err = es.eventLog.AppendBatch(context.WithoutCancel(ctx), persisted); err != nil {
		es.logError(ctx, logMsgPersistFailed, err, logAttrEventCount, len(events))
		return errors.Join(eventstore.ErrPersistingEventFailed, err)
	}

	es.sequence = sequence

	duration := time.Since(start)
	es.logDuration(ctx, logActionAppend, duration)
	es.logOperation(
		ctx,
		logMsgEventsPersisted,
		logAttrEventCount, len(persisted),
		logAttrSequence, sequence,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

// executeInsert runs the insert statement and returns the highest sequence number it assigned.
func (es *EventStore) executeInsert(ctx context.Context, sqlQuery string, eventCount int) (uint64, error) {
	start := time.Now()
	rows, err := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, logActionAppend, time.Since(start))

	if err != nil {
		return 0, err
	}

	defer es.closeRows(ctx, rows)

	var sequence uint64
	inserted := 0

	for rows.Next() {
		var sequenceNumber int64
		if err = rows.Scan(&sequenceNumber); err != nil {
			return 0, err
		}

		sequence = max(sequence, uint64(sequenceNumber)) //nolint:gosec // bigserial starts at 1
		inserted++
	}

	if err = rows.Err(); err != nil {
		return 0, err
	}

	if inserted != eventCount {
		es.logError(ctx, logMsgPersistFailed, errRowsAffectedMismatch,
			logAttrEventCount, eventCount, logAttrRowsAffected, inserted)

		return 0, errRowsAffectedMismatch
	}

	return sequence, nil
}

func (es *EventStore) buildSelectQuery() (string, error) {
	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colSequenceNumber, colEventID, colEventType, colAggregateID, colPayloadAsJSON, colCreator, colTimestamp).
		Order(goqu.I(colSequenceNumber).Asc()).
		ToSQL()

	return sqlQuery, err
}

func (es *EventStore) buildInsertQuery(events eventstore.Events) (string, error) {
	records := make([]any, 0, len(events))

	for _, event := range events {
		row, err := eventRowFrom(event, es.serializer)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", event.ID, err)
		}

		records = append(records, row.record())
	}

	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		Insert(es.eventTableName).
		Rows(records...).
		Returning(goqu.C(colSequenceNumber)).
		ToSQL()

	return sqlQuery, err
}

// AppendWithChecks is reserved for an append with integrity checks, which are not defined yet.
func (es *EventStore) AppendWithChecks(ctx context.Context, events ...eventstore.Event) error {
	es.logError(ctx, logMsgAppendRejected, eventstore.ErrNotImplemented,
		logAttrEventCount, len(events), logAttrOperation, logActionAppendChecked)

	return eventstore.ErrNotImplemented
}

// Sequence returns the sequence number of the last persisted event, 0 if there is none.
func (es *EventStore) Sequence() uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	return es.sequence
}

// Len returns the number of events in the store.
func (es *EventStore) Len() int {
	return es.eventLog.Len()
}

// TableName returns the name of the table the events are stored in.
func (es *EventStore) TableName() string {
	return es.eventTableName
}

var _ eventstore.EventStore = (*EventStore)(nil)

// Package postgresengine provides a durable eventstore.EventStore on top of a PostgreSQL table.
//
// It works with pgxpool.Pool, sql.DB, or sqlx.DB. The table is created if it does not exist,
// then all rows are replayed into an in-memory EventLog, which serves queries.
// Appends insert the whole batch with one statement before the events become visible.
//
// Usage examples:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(ctx, pool)
//
//	// With a custom table and operational logging
//	store, _ := postgresengine.NewEventStoreFromSQLDB(
//		ctx,
//		db,
//		postgresengine.WithTableName("order_events"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	err := store.Append(ctx, eventstore.BuildEvent("com.example.OrderPlaced"))
//	events, _ := store.Query(ctx, eventstore.ByEventType("com.example.OrderPlaced"))
package postgresengine

// Package adapters lets the PostgreSQL event store run on pgxpool.Pool, sql.DB, or sqlx.DB.
//
// Statements are fully interpolated SQL strings, so the adapters only need to run them.
package adapters

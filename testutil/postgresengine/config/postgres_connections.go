package config

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"
)

const (
	defaultMaxConnections  = 10
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = time.Minute * 5
	defaultConnectTimeout  = time.Second * 5
)

// PostgresPGXPool opens a pgxpool.Pool to the test database, closed when the test finishes.
func PostgresPGXPool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dbConfig, err := pgxpool.ParseConfig(PostgresTestDSN(t))
	require.NoError(t, err)

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)

	return pool
}

// PostgresSQLDB opens a sql.DB with the lib/pq driver to the test database.
func PostgresSQLDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", PostgresTestDSN(t))
	require.NoError(t, err)
	configure(t, db)

	return db
}

// PostgresSQLX opens a sqlx.DB with the lib/pq driver to the test database.
func PostgresSQLX(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("postgres", PostgresTestDSN(t))
	require.NoError(t, err)
	configure(t, db.DB)

	return db
}

func configure(t testing.TB, db *sql.DB) {
	t.Helper()

	db.SetMaxOpenConns(defaultMaxConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })
}

// UniqueTableName returns a fresh table name that is dropped when the test finishes.
func UniqueTableName(t testing.TB, db *sql.DB) string {
	t.Helper()

	tableName := "events_" + uuid.NewString()[:8]

	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %q", tableName))
	})

	return tableName
}

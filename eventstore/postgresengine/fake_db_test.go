package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore/postgresengine/internal/adapters"
)

// fakeDB answers statements from queued results and records everything it was asked to run.
type fakeDB struct {
	mu         sync.Mutex
	statements []string
	results    []fakeResult
	execErr    error
}

type fakeResult struct {
	rows [][]any
	err  error
}

func (db *fakeDB) willReturn(rows [][]any, err error) *fakeDB {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.results = append(db.results, fakeResult{rows: rows, err: err})

	return db
}

func (db *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.statements = append(db.statements, query)

	if len(db.results) == 0 {
		return &fakeRows{}, nil
	}

	result := db.results[0]
	db.results = db.results[1:]

	if result.err != nil {
		return nil, result.err
	}

	return &fakeRows{rows: result.rows, cursor: -1}, nil
}

func (db *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.statements = append(db.statements, query)

	if db.execErr != nil {
		return nil, db.execErr
	}

	return fakeResultRows(0), nil
}

func (db *fakeDB) statementsContaining(part string) []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	var found []string
	for _, statement := range db.statements {
		if strings.Contains(statement, part) {
			found = append(found, statement)
		}
	}

	return found
}

type fakeResultRows int64

func (r fakeResultRows) RowsAffected() (int64, error) {
	return int64(r), nil
}

type fakeRows struct {
	rows   [][]any
	cursor int
}

func (r *fakeRows) Next() bool {
	r.cursor++
	return r.cursor < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.cursor]
	if len(row) != len(dest) {
		return fmt.Errorf("row has %d columns, scanned into %d", len(row), len(dest))
	}

	for i, value := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = value.(int64)
		case *string:
			*d = value.(string)
		case *sql.NullString:
			if value == nil {
				*d = sql.NullString{}
			} else {
				*d = sql.NullString{String: value.(string), Valid: true}
			}
		default:
			return fmt.Errorf("unsupported scan destination %T", dest[i])
		}
	}

	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

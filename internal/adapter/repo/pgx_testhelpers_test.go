package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

// stringRows yields one string per row, for the column-introspection query.
type stringRows struct {
	testRowsBase
	values []string
	pos    int
}

func (r *stringRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *stringRows) Scan(dest ...any) error {
	if len(dest) != 1 {
		return fmt.Errorf("expected 1 dest, got %d", len(dest))
	}
	p, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("expected *string dest")
	}
	*p = r.values[r.pos-1]
	return nil
}

func (r *stringRows) Err() error { return nil }
func (r *stringRows) Close()     {}

type execCall struct {
	query string
	args  []any
}

// fakeExecutor records executed statements and replays programmed results.
type fakeExecutor struct {
	execs        []execCall
	execTag      pgconn.CommandTag
	execErr      error
	queryRowFunc func(query string, args []any) pgx.Row
	queryRows    pgx.Rows
	queryErr     error
}

func (f *fakeExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	return f.execTag, f.execErr
}

func (f *fakeExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if f.queryRowFunc != nil {
		return f.queryRowFunc(query, args)
	}
	return simpleRow{}
}

func (f *fakeExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryRows, nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"whisperd/internal/sqlinline"
)

// jobsAddedColumns lists every column added to the jobs table after the base
// schema. Additions are strictly additive: defaults are null or zero and no
// existing row ever needs backfilling to stay queryable. New columns belong
// at the end of this list.
var jobsAddedColumns = []struct {
	name string
	ddl  string
}{
	{"alias", "text not null default ''"},
	{"start_timestamp", "timestamptz"},
	{"progress", "double precision not null default 0.0"},
	{"duration", "double precision"},
	{"detected_language", "text"},
	{"audio_duration", "double precision"},
	{"file_size", "bigint"},
	{"error_message", "text"},
	{"language_hint", "text not null default 'auto'"},
}

// Init creates the jobs table when absent and applies any missing additive
// columns. It is safe to run on every process start: existing structure is
// detected through information_schema before anything is reapplied.
func (s *JobStore) Init(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QCreateJobsTable); err != nil {
		return storeErr("jobs: init", err)
	}

	existing, err := s.existingColumns(ctx)
	if err != nil {
		return err
	}
	for _, col := range jobsAddedColumns {
		if _, ok := existing[col.name]; ok {
			continue
		}
		stmt := fmt.Sprintf("--sql %s\nalter table jobs add column %s %s;",
			uuid.NewString(), pq.QuoteIdentifier(col.name), col.ddl)
		if _, err := s.sql.Exec(ctx, stmt); err != nil {
			return storeErr(fmt.Sprintf("jobs: add column %s", col.name), err)
		}
	}

	if _, err := s.sql.Exec(ctx, sqlinline.QCreateJobsOwnerIndex); err != nil {
		return storeErr("jobs: init index", err)
	}
	return nil
}

func (s *JobStore) existingColumns(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectJobsColumns)
	if err != nil {
		return nil, storeErr("jobs: inspect columns", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr("jobs: scan column", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("jobs: inspect columns", err)
	}
	return existing, nil
}

package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"whisperd/internal/domain"
)

func TestCreateAssignsIDAndForcesQueued(t *testing.T) {
	fake := &fakeExecutor{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	store := NewJobStore(fake)

	job := domain.NewJob("owner-1", "talk.mp3", "tiny", "meeting", "en")
	job.Status = domain.StatusCompleted // must be overridden
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if job.ID == "" {
		t.Fatal("Create() did not assign an id")
	}
	if job.Status != domain.StatusQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}
	if len(fake.execs) != 1 {
		t.Fatalf("got %d exec calls, want 1", len(fake.execs))
	}
	if !strings.Contains(fake.execs[0].query, "insert into jobs") {
		t.Fatalf("unexpected query: %s", fake.execs[0].query)
	}
}

func TestApplyUsesGuardedUpdates(t *testing.T) {
	cases := []struct {
		name       string
		transition domain.Transition
		wantSet    string
		wantGuard  string
		wantArgs   int
	}{
		{
			name:       "start processing",
			transition: domain.StartProcessing{At: time.Now()},
			wantSet:    "status = 'processing'",
			wantGuard:  "status = 'queued'",
			wantArgs:   2,
		},
		{
			name:       "set progress",
			transition: domain.SetProgress{Value: 0.4},
			wantSet:    "greatest(coalesce(progress, 0.0), $2)",
			wantGuard:  "status = 'processing'",
			wantArgs:   2,
		},
		{
			name:       "complete success",
			transition: domain.CompleteSuccess{Result: "text", DetectedLanguage: "en", AudioDuration: 12, FileSize: 1024, Duration: 3},
			wantSet:    "status = 'completed'",
			wantGuard:  "status = 'processing'",
			wantArgs:   6,
		},
		{
			name:       "complete failure",
			transition: domain.CompleteFailure{ErrorMessage: "Error: boom", Duration: 3},
			wantSet:    "status = 'failed'",
			wantGuard:  "status = 'processing'",
			wantArgs:   3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeExecutor{execTag: pgconn.NewCommandTag("UPDATE 1")}
			store := NewJobStore(fake)

			if err := store.Apply(context.Background(), "job-1", tc.transition); err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			call := fake.execs[0]
			if !strings.Contains(call.query, tc.wantSet) {
				t.Fatalf("query missing %q:\n%s", tc.wantSet, call.query)
			}
			if !strings.Contains(call.query, tc.wantGuard) {
				t.Fatalf("query missing guard %q:\n%s", tc.wantGuard, call.query)
			}
			if len(call.args) != tc.wantArgs {
				t.Fatalf("got %d args, want %d", len(call.args), tc.wantArgs)
			}
			if call.args[0] != "job-1" {
				t.Fatalf("first arg = %v, want job id", call.args[0])
			}
		})
	}
}

func TestApplyZeroRowsReportsNotFound(t *testing.T) {
	fake := &fakeExecutor{execTag: pgconn.NewCommandTag("UPDATE 0")}
	store := NewJobStore(fake)

	err := store.Apply(context.Background(), "job-1", domain.SetProgress{Value: 0.5})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Apply() err = %v, want ErrNotFound", err)
	}
}

func TestApplyClampsProgress(t *testing.T) {
	fake := &fakeExecutor{execTag: pgconn.NewCommandTag("UPDATE 1")}
	store := NewJobStore(fake)

	if err := store.Apply(context.Background(), "job-1", domain.SetProgress{Value: 1.7}); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got := fake.execs[0].args[1]; got != 1.0 {
		t.Fatalf("progress arg = %v, want clamped 1.0", got)
	}
}

func TestGetByIDMapsNoRows(t *testing.T) {
	store := NewJobStore(&fakeExecutor{})

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() err = %v, want ErrNotFound", err)
	}
}

func TestDeleteReportsOutcomeWithoutError(t *testing.T) {
	fake := &fakeExecutor{execTag: pgconn.NewCommandTag("DELETE 0")}
	store := NewJobStore(fake)

	deleted, err := store.Delete(context.Background(), "job-1", "owner-1")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if deleted {
		t.Fatal("Delete() reported true for zero rows")
	}

	fake.execTag = pgconn.NewCommandTag("DELETE 1")
	deleted, err = store.Delete(context.Background(), "job-1", "owner-1")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !deleted {
		t.Fatal("Delete() reported false for one row")
	}
}

func TestCountActiveByOwner(t *testing.T) {
	fake := &fakeExecutor{
		queryRowFunc: func(query string, args []any) pgx.Row {
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*int)) = 2
				return nil
			}}
		},
	}
	store := NewJobStore(fake)

	count, err := store.CountActiveByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("CountActiveByOwner() error: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestScanJobRejectsUnknownStatus(t *testing.T) {
	row := simpleRow{scan: func(dest ...any) error {
		*(dest[4].(*string)) = "exploded"
		return nil
	}}
	if _, err := scanJob(row); err == nil {
		t.Fatal("scanJob() accepted unknown status")
	}
}

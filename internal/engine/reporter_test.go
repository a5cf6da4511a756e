package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"whisperd/internal/domain"
)

func TestReporterMarkPhaseOnlyAcceptsProcessing(t *testing.T) {
	store := newMemStore()
	reporter := NewReporter(store, zerolog.Nop())
	job := queuedJob(t, store)
	ctx := context.Background()

	for _, status := range []domain.Status{domain.StatusQueued, domain.StatusCompleted, domain.StatusFailed} {
		if err := reporter.MarkPhase(ctx, job.ID, status, time.Now()); err == nil {
			t.Fatalf("MarkPhase(%s) accepted, want error", status)
		}
	}

	if err := reporter.MarkPhase(ctx, job.ID, domain.StatusProcessing, time.Now()); err != nil {
		t.Fatalf("MarkPhase(processing) error: %v", err)
	}
	got, _ := store.get(job.ID)
	if got.Status != domain.StatusProcessing {
		t.Fatalf("status = %s, want processing", got.Status)
	}
	if got.StartedAt == nil {
		t.Fatal("start timestamp not recorded")
	}
	if got.Progress != 0.1 {
		t.Fatalf("progress = %v, want 0.1 acceptance floor", got.Progress)
	}
}

func TestReporterSetProgressSwallowsMissingJob(t *testing.T) {
	store := newMemStore()
	reporter := NewReporter(store, zerolog.Nop())

	// Must not panic or surface anything; the next update supersedes it.
	reporter.SetProgress(context.Background(), "no-such-job", 0.5)
}

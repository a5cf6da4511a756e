package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"whisperd/internal/domain"
	"whisperd/internal/engine"
	"whisperd/internal/middleware"
	"whisperd/internal/storage"
	"whisperd/internal/transcribe"
)

// stubStore is an in-memory JobStore with the same guard semantics as the
// SQL transition updates.
type stubStore struct {
	mu     sync.Mutex
	nextID int
	jobs   map[string]*domain.Job
}

func newStubStore() *stubStore {
	return &stubStore{jobs: make(map[string]*domain.Job)}
}

func (s *stubStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job.ID = fmt.Sprintf("job-%d", s.nextID)
	job.Status = domain.StatusQueued
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *stubStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *stubStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []domain.Job
	for _, job := range s.jobs {
		if job.OwnerID == ownerID {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (s *stubStore) ListByAlias(ctx context.Context, ownerID, alias string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []domain.Job
	for _, job := range s.jobs {
		if job.OwnerID == ownerID && job.Alias == alias {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (s *stubStore) Apply(ctx context.Context, jobID string, t domain.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	switch e := t.(type) {
	case domain.StartProcessing:
		if job.Status != domain.StatusQueued {
			return domain.ErrNotFound
		}
		at := e.At
		job.Status = domain.StatusProcessing
		job.StartedAt = &at
		job.Progress = 0.1
	case domain.SetProgress:
		if job.Status != domain.StatusProcessing {
			return domain.ErrNotFound
		}
		if e.Value > job.Progress {
			job.Progress = e.Value
		}
	case domain.CompleteSuccess:
		if job.Status != domain.StatusProcessing {
			return domain.ErrNotFound
		}
		job.Status = domain.StatusCompleted
		job.Result = e.Result
		job.Progress = 1
		job.DetectedLanguage = e.DetectedLanguage
	case domain.CompleteFailure:
		if job.Status != domain.StatusProcessing {
			return domain.ErrNotFound
		}
		job.Status = domain.StatusFailed
		job.Result = e.ErrorMessage
		job.ErrorMessage = e.ErrorMessage
		job.Progress = 1
	}
	return nil
}

func (s *stubStore) Delete(ctx context.Context, jobID, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return false, nil
	}
	delete(s.jobs, jobID)
	return true, nil
}

func (s *stubStore) DeleteByAlias(ctx context.Context, ownerID, alias string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, job := range s.jobs {
		if job.OwnerID == ownerID && job.Alias == alias {
			delete(s.jobs, id)
			count++
		}
	}
	return count, nil
}

func (s *stubStore) CountActiveByOwner(ctx context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, job := range s.jobs {
		if job.OwnerID == ownerID && job.Status.Active() {
			count++
		}
	}
	return count, nil
}

var _ domain.JobStore = (*stubStore)(nil)

// inlineDispatcher runs tasks synchronously so handler tests observe the
// fully processed job.
type inlineDispatcher struct {
	refuse bool
}

func (d *inlineDispatcher) Submit(task engine.Task) bool {
	if d.refuse {
		return false
	}
	task(context.Background())
	return true
}

type stubStream struct {
	info     transcribe.StreamInfo
	segments []transcribe.Segment
	pos      int
}

func (s *stubStream) Info() transcribe.StreamInfo { return s.info }

func (s *stubStream) Next() (transcribe.Segment, bool) {
	if s.pos >= len(s.segments) {
		return transcribe.Segment{}, false
	}
	seg := s.segments[s.pos]
	s.pos++
	return seg, true
}

func (s *stubStream) Err() error   { return nil }
func (s *stubStream) Close() error { return nil }

type stubTranscriber struct {
	text string
}

func (t *stubTranscriber) Transcribe(ctx context.Context, req transcribe.Request) (transcribe.Stream, error) {
	return &stubStream{
		info:     transcribe.StreamInfo{DetectedLanguage: "en", AudioDuration: 30},
		segments: []transcribe.Segment{{Text: t.text, Start: 0, End: 30}},
	}, nil
}

type testEnv struct {
	app   *App
	store *stubStore
	pool  *inlineDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newStubStore()
	spool, err := storage.NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool() error: %v", err)
	}
	registry := transcribe.NewRegistry()
	registry.Register(transcribe.ModelInfo{Name: "tiny", Label: "Tiny", EstimateFactor: 2}, &stubTranscriber{text: "hello world"})

	logger := zerolog.Nop()
	reporter := engine.NewReporter(store, logger)
	pool := &inlineDispatcher{}
	app := &App{
		Logger:         logger,
		Jobs:           store,
		Spool:          spool,
		Registry:       registry,
		Gate:           engine.NewGate(store, 3),
		Pool:           pool,
		Processor:      engine.NewProcessor(store, reporter, registry, logger),
		MaxUploadBytes: 10 * 1024 * 1024,
	}
	return &testEnv{app: app, store: store, pool: pool}
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func authedRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "owner-1"))
}

func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedJob(t *testing.T, store *stubStore, ownerID string, mutate func(*domain.Job)) *domain.Job {
	t.Helper()
	job := domain.NewJob(ownerID, "talk.mp3", "tiny", "", "auto")
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if mutate != nil {
		store.mu.Lock()
		mutate(store.jobs[job.ID])
		copied := *store.jobs[job.ID]
		store.mu.Unlock()
		return &copied
	}
	return job
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"whisperd/internal/domain"
	"whisperd/internal/middleware"
	"whisperd/internal/transcribe"
)

// allowedExtensions is the audio format allow-list applied at submission.
var allowedExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
}

// SupportedFormats lists the accepted formats for the limits endpoint.
func SupportedFormats() []string {
	return []string{"MP3", "WAV", "M4A", "FLAC", "OGG"}
}

type submitResponse struct {
	JobID         string  `json:"job_id"`
	Status        string  `json:"status"`
	Alias         string  `json:"alias"`
	EstimatedTime float64 `json:"estimated_time"`
}

// SubmitJob validates an upload, admits it through the concurrency gate,
// persists the queued job and hands it to the worker pool. The response
// returns immediately; everything after dispatch is observable only by
// polling.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())
	if ownerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	file, header, err := a.acceptUpload(w, r, a.MaxUploadBytes)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			a.error(w, validationStatus(ve), "bad_request", ve.Error())
		} else {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid upload")
		}
		return
	}
	defer file.Close()

	model := strings.TrimSpace(r.FormValue("model"))
	if model == "" {
		model = a.Registry.DefaultModel()
	}
	if !a.Registry.Has(model) {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("model %q not available", model))
		return
	}
	languageHint, ok := transcribe.NormalizeLanguage(r.FormValue("language"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported language")
		return
	}
	alias := strings.TrimSpace(r.FormValue("alias"))

	path, size, err := a.Spool.Save(header.Filename, file)
	if err != nil {
		a.Logger.Error().Err(err).Msg("submit: spool write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}
	if size > a.MaxUploadBytes {
		a.discardUpload(path)
		a.error(w, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("file exceeds maximum of %d MB", a.MaxUploadBytes/(1024*1024)))
		return
	}

	job := domain.NewJob(ownerID, header.Filename, model, alias, languageHint)
	err = a.Gate.Admit(r.Context(), ownerID, func(ctx context.Context) error {
		return a.Jobs.Create(ctx, job)
	})
	if err != nil {
		a.discardUpload(path)
		if errors.Is(err, domain.ErrAdmissionDenied) {
			a.error(w, http.StatusTooManyRequests, "admission_denied",
				fmt.Sprintf("concurrent job limit of %d reached", a.Gate.Limit()))
			return
		}
		a.Logger.Error().Err(err).Msg("submit: job create failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "failed to queue job")
		return
	}

	submitted := a.Pool.Submit(func(ctx context.Context) {
		a.Processor.Process(ctx, job, path)
	})
	if !submitted {
		// Undo the create: the job never reached a worker, and queued jobs
		// must not fail without passing through processing.
		if _, derr := a.Jobs.Delete(r.Context(), job.ID, ownerID); derr != nil {
			a.Logger.Error().Err(derr).Str("job_id", job.ID).Msg("submit: rollback failed")
		}
		a.discardUpload(path)
		a.error(w, http.StatusServiceUnavailable, "overloaded", "worker queue full, try again later")
		return
	}

	a.json(w, http.StatusAccepted, submitResponse{
		JobID:         job.ID,
		Status:        string(domain.StatusQueued),
		Alias:         alias,
		EstimatedTime: math.Round(a.Registry.EstimateSeconds(model, size)),
	})
}

// ListJobs returns the caller's jobs, newest first, in the compact polling
// shape.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())
	if ownerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobs, err := a.Jobs.ListByOwner(r.Context(), ownerID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: list failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "failed to load jobs")
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobSummary(job))
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": items})
}

// GetJob returns the full record of one owned job.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, jobDetail(*job))
}

// DownloadTranscript serves a completed transcript as a plain-text
// attachment named after the alias or the original filename.
func (a *App) DownloadTranscript(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	if job.Status != domain.StatusCompleted || job.Result == "" {
		a.error(w, http.StatusBadRequest, "not_ready", "transcript not available yet")
		return
	}
	name := job.Alias
	if name == "" {
		name = job.Filename
	}
	if name == "" {
		name = "transcript_" + job.ID
	}
	if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(job.Result))
}

// DeleteJob removes one owned job. Deleting a missing or foreign job yields
// the same not-found signal.
func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())
	if ownerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	deleted, err := a.Jobs.Delete(r.Context(), jobID, ownerID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: delete failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "failed to delete job")
		return
	}
	if !deleted {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"deleted_job_id": jobID})
}

// JobsByAlias lists the owner's jobs under one alias.
func (a *App) JobsByAlias(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())
	if ownerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	alias := chi.URLParam(r, "alias")
	jobs, err := a.Jobs.ListByAlias(r.Context(), ownerID, alias)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: list by alias failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "failed to load jobs")
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobSummary(job))
	}
	a.json(w, http.StatusOK, map[string]any{"alias": alias, "jobs": items})
}

// DeleteJobsByAlias removes all of the owner's jobs under one alias and
// reports the count.
func (a *App) DeleteJobsByAlias(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())
	if ownerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	alias := chi.URLParam(r, "alias")
	count, err := a.Jobs.DeleteByAlias(r.Context(), ownerID, alias)
	if err != nil {
		a.Logger.Error().Err(err).Msg("jobs: delete by alias failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "failed to delete jobs")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"alias": alias, "deleted_count": count})
}

func (a *App) loadOwnedJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	ownerID := middleware.UserIDFromContext(r.Context())
	if ownerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	jobID := chi.URLParam(r, "job_id")
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Msg("jobs: get failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "failed to load job")
		return nil, false
	}
	// Foreign jobs answer exactly like missing ones.
	if job.OwnerID != ownerID {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return nil, false
	}
	return job, true
}

// acceptUpload parses the multipart form and applies the size and format
// checks shared by submission and synchronous transcription.
func (a *App) acceptUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	// Multipart framing adds overhead beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, &domain.ValidationError{Field: "file", Reason: "missing or unreadable upload"}
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		file.Close()
		return nil, nil, &domain.ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported format %q", ext)}
	}
	if header.Size > maxBytes {
		file.Close()
		return nil, nil, &domain.ValidationError{Field: "file", Reason: fmt.Sprintf("file exceeds maximum of %d MB", maxBytes/(1024*1024))}
	}
	return file, header, nil
}

func (a *App) discardUpload(path string) {
	if err := a.Spool.Remove(path); err != nil {
		a.Logger.Warn().Err(err).Str("path", path).Msg("could not discard upload")
	}
}

func validationStatus(ve *domain.ValidationError) int {
	if strings.Contains(ve.Reason, "exceeds maximum") {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func jobSummary(job domain.Job) map[string]any {
	return map[string]any{
		"id":       job.ID,
		"filename": job.Filename,
		"alias":    job.Alias,
		"status":   job.Status,
		"progress": job.Progress,
		"duration": job.Duration,
	}
}

func jobDetail(job domain.Job) map[string]any {
	detail := map[string]any{
		"id":            job.ID,
		"filename":      job.Filename,
		"model":         job.Model,
		"status":        job.Status,
		"result":        job.Result,
		"created_at":    job.CreatedAt.Format(time.RFC3339),
		"alias":         job.Alias,
		"language_hint": job.LanguageHint,
		"progress":      job.Progress,
	}
	if job.StartedAt != nil {
		detail["start_timestamp"] = job.StartedAt.Format(time.RFC3339)
	}
	if job.Duration != nil {
		detail["duration"] = *job.Duration
	}
	if job.DetectedLanguage != "" {
		detail["detected_language"] = job.DetectedLanguage
	}
	if job.AudioDuration != nil {
		detail["audio_duration"] = *job.AudioDuration
	}
	if job.FileSize != nil {
		detail["file_size"] = *job.FileSize
	}
	if job.ErrorMessage != "" {
		detail["error_message"] = job.ErrorMessage
	}
	return detail
}

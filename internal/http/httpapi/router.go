package httpapi

import (
	"net/http"

	"whisperd/internal/http/handlers"
	appmw "whisperd/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public metadata endpoints and the key-protected job
// API.
func NewRouter(app *handlers.App, users appmw.UserResolver) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	// Health and metadata need no credentials.
	r.Get("/v1/healthz", app.Health)
	r.Get("/models", app.Models)
	r.Get("/languages", app.Languages)
	r.Get("/upload-limits", app.UploadLimits)

	r.Group(func(r chi.Router) {
		r.Use(appmw.APIKeyAuth(users, app.Logger))

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", app.SubmitJob)
			r.Get("/", app.ListJobs)
			r.Get("/alias/{alias}", app.JobsByAlias)
			r.Delete("/alias/{alias}", app.DeleteJobsByAlias)
			r.Get("/{job_id}", app.GetJob)
			r.Delete("/{job_id}", app.DeleteJob)
			r.Get("/{job_id}/download", app.DownloadTranscript)
		})

		r.Post("/transcribe", app.Transcribe)
	})

	return r
}

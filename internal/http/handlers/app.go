package handlers

import (
	"encoding/json"
	"net/http"

	"whisperd/internal/domain"
	"whisperd/internal/engine"
	"whisperd/internal/infra"
	"whisperd/internal/storage"
	"whisperd/internal/transcribe"
)

// App bundles the handler dependencies. Everything is injected at startup;
// handlers stay thin glue over the job engine.
type App struct {
	Logger    infra.Logger
	Jobs      domain.JobStore
	Spool     *storage.Spool
	Registry  *transcribe.Registry
	Gate      *engine.Gate
	Pool      engine.Dispatcher
	Processor *engine.Processor

	MaxUploadBytes int64
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: code, Message: message})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

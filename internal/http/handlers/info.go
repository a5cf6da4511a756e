package handlers

import (
	"net/http"

	"whisperd/internal/transcribe"
)

type modelEntry struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Loaded bool   `json:"loaded"`
}

// Models lists the loaded models in registration order.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	infos := a.Registry.Models()
	models := make([]modelEntry, 0, len(infos))
	for _, info := range infos {
		models = append(models, modelEntry{Value: info.Name, Label: info.Label, Loaded: true})
	}
	a.json(w, http.StatusOK, map[string]any{"models": models})
}

// Languages lists the language hints the submission form accepts.
func (a *App) Languages(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"languages": transcribe.Languages()})
}

// UploadLimits reports the submission constraints so clients can validate
// before uploading.
func (a *App) UploadLimits(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"max_size_mb":         a.MaxUploadBytes / (1024 * 1024),
		"max_size_bytes":      a.MaxUploadBytes,
		"supported_formats":   SupportedFormats(),
		"max_concurrent_jobs": a.Gate.Limit(),
	})
}

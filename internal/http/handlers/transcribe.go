package handlers

import (
	"errors"
	"net/http"
	"strings"

	"whisperd/internal/domain"
	"whisperd/internal/transcribe"
)

// maxSyncUploadBytes caps the synchronous endpoint well below the async
// limit; anything larger belongs in the job queue.
const maxSyncUploadBytes = 25 * 1024 * 1024

type transcribeResponse struct {
	Text             string  `json:"text"`
	DetectedLanguage string  `json:"detected_language"`
	AudioDuration    float64 `json:"audio_duration"`
}

// Transcribe runs a small upload through a model inline and returns the full
// transcript in the response. No job record is created; the caller waits.
func (a *App) Transcribe(w http.ResponseWriter, r *http.Request) {
	file, header, err := a.acceptUpload(w, r, maxSyncUploadBytes)
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
	transcriber, ok := a.Registry.Get(model)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "model not available")
		return
	}
	language, ok := transcribe.NormalizeLanguage(r.FormValue("language"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported language")
		return
	}

	path, size, err := a.Spool.Save(header.Filename, file)
	if err != nil {
		a.Logger.Error().Err(err).Msg("transcribe: spool write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}
	defer a.discardUpload(path)
	if size > maxSyncUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds maximum of 25 MB")
		return
	}

	stream, err := transcriber.Transcribe(r.Context(), transcribe.Request{
		FilePath: path,
		Model:    model,
		Language: language,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("model", model).Msg("transcribe: run failed")
		a.error(w, http.StatusInternalServerError, "transcription_failed", err.Error())
		return
	}
	defer stream.Close()

	info := stream.Info()
	var text strings.Builder
	for {
		segment, ok := stream.Next()
		if !ok {
			break
		}
		text.WriteString(segment.Text)
	}
	if err := stream.Err(); err != nil {
		a.Logger.Warn().Err(err).Str("model", model).Msg("transcribe: stream failed")
		a.error(w, http.StatusInternalServerError, "transcription_failed", err.Error())
		return
	}

	a.json(w, http.StatusOK, transcribeResponse{
		Text:             text.String(),
		DetectedLanguage: info.DetectedLanguage,
		AudioDuration:    info.AudioDuration,
	})
}

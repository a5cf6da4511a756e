package domain

import (
	"strings"
	"time"
)

// Status enumerates job lifecycle states.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusFailed}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// activeStatuses are the states counted against the per-owner admission limit.
var activeStatuses = map[Status]struct{}{
	StatusQueued:     {},
	StatusProcessing: {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether no further mutation may occur in this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Active reports whether the status counts toward the admission limit.
func (s Status) Active() bool {
	_, ok := activeStatuses[s]
	return ok
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Jobs move queued -> processing -> completed|failed and never
// re-enter an earlier state.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Job encapsulates one transcription request and its tracked lifecycle.
// ID, OwnerID and the submission inputs are immutable after creation; the
// remaining fields mutate only through the typed Transition events until a
// terminal state is reached. Status, not Progress, is authoritative for
// whether work finished.
type Job struct {
	ID           string
	OwnerID      string
	Filename     string
	Model        string
	LanguageHint string
	Alias        string

	Status   Status
	Progress float64
	Result   string

	CreatedAt time.Time
	StartedAt *time.Time
	Duration  *float64

	DetectedLanguage string
	AudioDuration    *float64
	FileSize         *int64
	ErrorMessage     string
}

// NewJob builds a queued job from the submission inputs. The store assigns
// the identifier on create.
func NewJob(ownerID, filename, model, alias, languageHint string) *Job {
	return &Job{
		OwnerID:      ownerID,
		Filename:     filename,
		Model:        model,
		Alias:        alias,
		LanguageHint: languageHint,
		Status:       StatusQueued,
		CreatedAt:    time.Now().UTC(),
	}
}

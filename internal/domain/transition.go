package domain

import "time"

// Transition is a typed state-machine event applied atomically to a single
// job record. The closed set of implementations below is the only write path
// for mutable job fields, so illegal field combinations (a result on a queued
// job, a backwards progress value) are unrepresentable.
type Transition interface {
	transition()
}

// StartProcessing moves a queued job into processing. It records the start
// timestamp and raises progress to the acceptance floor of 0.1 so pollers can
// see the job was picked up before any real work happens.
type StartProcessing struct {
	At time.Time
}

// SetProgress advances the fractional progress of a processing job.
// Values are clamped to [0,1] by the store and never move backward.
type SetProgress struct {
	Value float64
}

// CompleteSuccess is the single terminal write for a successful job: status,
// transcript, completion metadata and progress 1.0 land in one update.
type CompleteSuccess struct {
	Result           string
	DetectedLanguage string
	AudioDuration    float64
	FileSize         int64
	Duration         float64
}

// CompleteFailure is the single terminal write for a failed job. Progress is
// fixed at 1.0 so pollers distinguish "still running" from "done, badly" by
// status alone.
type CompleteFailure struct {
	ErrorMessage string
	Duration     float64
}

func (StartProcessing) transition() {}
func (SetProgress) transition()     {}
func (CompleteSuccess) transition() {}
func (CompleteFailure) transition() {}

// Package transcribe defines the contract between the job engine and the
// transcription collaborator, the read-only model registry, and the known
// language set. The engine never cares how transcription happens; it consumes
// an ordered segment stream and a summary.
package transcribe

import (
	"context"
	"fmt"
)

// Request carries the inputs for one transcription attempt.
type Request struct {
	FilePath string
	Model    string
	// Language is a normalized hint code, or "auto" for detection.
	Language string
}

// Segment is one produced-as-it-goes piece of transcript. Order is
// significant: concatenating segment text in produced order yields the
// transcript.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// StreamInfo is available as soon as a stream opens, before segments arrive.
type StreamInfo struct {
	DetectedLanguage string
	AudioDuration    float64
}

// Stream yields segments in spoken order. Usage follows the rows pattern:
// call Next until it reports false, then check Err, then Close.
type Stream interface {
	Info() StreamInfo
	Next() (Segment, bool)
	Err() error
	Close() error
}

// Transcriber is the opaque transcription collaborator. A call may take
// arbitrarily long; cancellation arrives only through ctx.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Stream, error)
}

// Error carries the human-readable cause of a failed transcription attempt.
type Error struct {
	Model string
	Cause string
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription with model %q failed: %s", e.Model, e.Cause)
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whisperd/internal/domain"
	"whisperd/internal/transcribe"
)

// Progress milestones. The early floors are deliberate UX signals, not
// measurements: pollers see a nonzero value as soon as a job is picked up.
const (
	progressAccepted    = 0.1
	progressFileStat    = 0.2
	progressSegmentLow  = 0.3
	progressSegmentHigh = 0.9

	// minProgressStep coalesces segment updates so long transcripts do not
	// amplify into one store write per segment.
	minProgressStep = 0.05
)

// Processor drives a job from queued to a terminal state. Exactly one
// Process call owns a given job; dispatch is the sole creation point of that
// ownership, so the processor itself needs no locking.
type Processor struct {
	store    domain.JobStore
	reporter domain.ProgressSink
	registry *transcribe.Registry
	logger   zerolog.Logger
}

// NewProcessor wires the state-machine driver.
func NewProcessor(store domain.JobStore, reporter domain.ProgressSink, registry *transcribe.Registry, logger zerolog.Logger) *Processor {
	return &Processor{store: store, reporter: reporter, registry: registry, logger: logger}
}

// Process runs the full lifecycle for one job: claim it, collect metadata,
// stream the transcription, and land exactly one terminal write. The
// transient input file is removed on every path out of this function, and the
// transcription is attempted exactly once; failures become the job's terminal
// state, never a retry.
func (p *Processor) Process(ctx context.Context, job *domain.Job, filePath string) {
	log := p.logger.With().Str("job_id", job.ID).Str("model", job.Model).Logger()
	defer p.removeUpload(filePath, log)

	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("processor: panic during job")
			p.finish(ctx, job.ID, domain.CompleteFailure{
				ErrorMessage: fmt.Sprintf("Error: internal failure: %v", rec),
				Duration:     time.Since(start).Seconds(),
			}, log)
		}
	}()

	if err := p.reporter.MarkPhase(ctx, job.ID, domain.StatusProcessing, start); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug().Msg("processor: job gone before start")
			return
		}
		log.Error().Err(err).Msg("processor: could not claim job")
		return
	}
	progress := &progressTracker{sink: p.reporter, jobID: job.ID, last: progressAccepted}

	info, err := os.Stat(filePath)
	if err != nil {
		p.fail(ctx, job.ID, start, fmt.Sprintf("input file unreadable: %v", err), log)
		return
	}
	fileSize := info.Size()
	progress.advance(ctx, progressFileStat)

	transcriber, ok := p.registry.Get(job.Model)
	if !ok {
		p.fail(ctx, job.ID, start, fmt.Sprintf("model %q not available", job.Model), log)
		return
	}

	stream, err := transcriber.Transcribe(ctx, transcribe.Request{
		FilePath: filePath,
		Model:    job.Model,
		Language: job.LanguageHint,
	})
	if err != nil {
		p.fail(ctx, job.ID, start, err.Error(), log)
		return
	}
	defer stream.Close()

	streamInfo := stream.Info()
	progress.advance(ctx, progressSegmentLow)

	var transcript strings.Builder
	for {
		segment, ok := stream.Next()
		if !ok {
			break
		}
		transcript.WriteString(segment.Text)
		progress.advance(ctx, segmentProgress(segment, streamInfo))
	}
	if err := stream.Err(); err != nil {
		p.fail(ctx, job.ID, start, err.Error(), log)
		return
	}

	p.finish(ctx, job.ID, domain.CompleteSuccess{
		Result:           transcript.String(),
		DetectedLanguage: streamInfo.DetectedLanguage,
		AudioDuration:    streamInfo.AudioDuration,
		FileSize:         fileSize,
		Duration:         time.Since(start).Seconds(),
	}, log)
	log.Info().Float64("audio_duration", streamInfo.AudioDuration).
		Str("language", streamInfo.DetectedLanguage).
		Msg("processor: job completed")
}

// segmentProgress maps a segment's position in the audio onto the 0.3..0.9
// window.
func segmentProgress(segment transcribe.Segment, info transcribe.StreamInfo) float64 {
	if info.AudioDuration <= 0 {
		return progressSegmentLow
	}
	frac := segment.End / info.AudioDuration
	if frac > 1 {
		frac = 1
	}
	return progressSegmentLow + frac*(progressSegmentHigh-progressSegmentLow)
}

func (p *Processor) fail(ctx context.Context, jobID string, start time.Time, cause string, log zerolog.Logger) {
	log.Warn().Str("cause", cause).Msg("processor: job failed")
	p.finish(ctx, jobID, domain.CompleteFailure{
		ErrorMessage: "Error: " + cause,
		Duration:     time.Since(start).Seconds(),
	}, log)
}

// finish lands the terminal write. A missing row means the owner deleted the
// job mid-processing and the write becomes a no-op; any other failure is
// escalated loudly because it strands the job in processing from the poller's
// point of view.
func (p *Processor) finish(ctx context.Context, jobID string, t domain.Transition, log zerolog.Logger) {
	err := p.store.Apply(ctx, jobID, t)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Msg("processor: job deleted before terminal write")
		return
	}
	log.Error().Err(err).Msg("processor: TERMINAL WRITE FAILED, job stuck in processing")
}

func (p *Processor) removeUpload(filePath string, log zerolog.Logger) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", filePath).Msg("processor: could not remove upload")
	}
}

// progressTracker coalesces progress updates: a write goes out only when the
// value advances by at least minProgressStep since the last persisted one.
// Values never move backward; the terminal transition pins 1.0 regardless.
type progressTracker struct {
	sink  domain.ProgressSink
	jobID string
	last  float64
}

func (t *progressTracker) advance(ctx context.Context, value float64) {
	if value > 1 {
		value = 1
	}
	if value-t.last < minProgressStep {
		return
	}
	t.sink.SetProgress(ctx, t.jobID, value)
	t.last = value
}

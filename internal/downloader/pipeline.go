package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Job is one URL's worth of work. It is immutable once built.
type Job struct {
	ID             string
	URL            string
	VideoDir       string
	AudioDir       string
	TranscoderPath string
}

// Status is the terminal state of a Job.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome is what one pipeline run reports back to the batch driver.
type Outcome struct {
	JobID      string        `json:"job_id"`
	URL        string        `json:"url"`
	Status     Status        `json:"status"`
	Title      string        `json:"title,omitempty"`
	VideoPath  string        `json:"video_path,omitempty"`
	VideoState VideoState    `json:"video_state,omitempty"`
	AudioPath  string        `json:"audio_path,omitempty"`
	AudioState AudioState    `json:"audio_state,omitempty"`
	Bytes      int64         `json:"bytes,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Err        error         `json:"-"`
}

// Skipped reports whether nothing new was produced for a completed item.
func (o Outcome) Skipped() bool {
	return o.Status == StatusCompleted && o.VideoState == VideoExists && o.AudioState != AudioExtracted
}

// ArtifactRecorder is notified of every artifact a completed item owns.
// Implementations must be safe for concurrent use.
type ArtifactRecorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome, resolved *ResolvedVideo) error
}

// Reporter receives each outcome as soon as it is known.
type Reporter interface {
	Report(outcome Outcome)
}

// Pipeline runs resolve, fetch and extract for one Job.
type Pipeline struct {
	Resolver  Resolver
	Fetcher   Fetcher
	Extractor Extractor
	Tags      bool
	Recorder  ArtifactRecorder
	Reporter  Reporter
	Logger    *slog.Logger
}

// Run processes job and never returns an error: every failure is folded into
// a failed Outcome so sibling jobs are unaffected.
func (p *Pipeline) Run(ctx context.Context, job Job) (outcome Outcome) {
	start := time.Now()
	logger := p.logger().With("job", job.ID, "url", job.URL)
	outcome = Outcome{JobID: job.ID, URL: job.URL}

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = StatusFailed
			outcome.Err = fmt.Errorf("panic: %v", r)
		}
		outcome.Elapsed = time.Since(start)
		p.log(logger, outcome)
		if p.Reporter != nil {
			p.Reporter.Report(outcome)
		}
	}()

	logger.Debug("processing url")
	resolved, err := p.Resolver.Resolve(ctx, job.URL)
	if err != nil {
		return failed(outcome, wrapCategory(CategoryResolution, err))
	}
	outcome.Title = resolved.Title

	fetched, err := p.Fetcher.Fetch(ctx, resolved, job.VideoDir)
	if err != nil {
		return failed(outcome, wrapCategory(CategoryIO, err))
	}
	outcome.VideoPath = fetched.Path
	outcome.VideoState = fetched.State
	outcome.Bytes = fetched.Bytes

	extractor := p.Extractor
	extractor.Logger = logger
	extracted, err := extractor.Extract(ctx, resolved, fetched.Path, job.AudioDir, job.TranscoderPath)
	if err != nil {
		return failed(outcome, wrapCategory(CategoryExtraction, err))
	}
	outcome.AudioPath = extracted.Path
	outcome.AudioState = extracted.State

	if p.Tags && extracted.State == AudioExtracted {
		if err := embedAudioTags(resolved, extracted.Path); err != nil {
			logger.Warn("metadata tag embedding failed", "audio", extracted.Path, "err", err)
		}
	}

	outcome.Status = StatusCompleted
	if p.Recorder != nil {
		if err := p.Recorder.RecordOutcome(ctx, outcome, resolved); err != nil {
			logger.Warn("recording artifacts failed", "err", err)
		}
	}
	return outcome
}

func failed(outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = err
	return outcome
}

func (p *Pipeline) log(logger *slog.Logger, o Outcome) {
	if o.Status == StatusFailed {
		logger.Error("item failed",
			"category", CategoryOf(o.Err),
			"reason", ReasonOf(o.Err),
			"err", o.Err,
			"elapsed", o.Elapsed,
		)
		return
	}
	logger.Debug("item completed",
		"title", o.Title,
		"video", o.VideoPath,
		"video_state", o.VideoState,
		"audio", o.AudioPath,
		"audio_state", o.AudioState,
		"bytes", o.Bytes,
		"elapsed", o.Elapsed,
	)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

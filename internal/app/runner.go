package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/downloader"
)

// ItemRunner processes a single Job. *downloader.Pipeline satisfies it.
type ItemRunner interface {
	Run(ctx context.Context, job downloader.Job) downloader.Outcome
}

// RunAll fans urls out over cfg.Parallelism workers and returns one outcome
// per url, in completion order. A failing item never stops the batch. When
// ctx is cancelled no further urls are dispatched; those are reported as
// failed with the context error and passed to reporter, which may be nil.
func RunAll(ctx context.Context, urls []string, cfg config.Config, runner ItemRunner, reporter downloader.Reporter) []downloader.Outcome {
	workers := cfg.Workers()
	if workers > len(urls) && len(urls) > 0 {
		workers = len(urls)
	}

	tasks := make(chan downloader.Job)
	results := make(chan downloader.Outcome, len(urls))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range tasks {
				results <- runner.Run(ctx, job)
			}
		}()
	}

	var undispatched []downloader.Job
	for i, url := range urls {
		job := newJob(url, cfg)
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case tasks <- job:
				continue
			}
		}
		undispatched = append(undispatched, job)
		for _, rest := range urls[i+1:] {
			undispatched = append(undispatched, newJob(rest, cfg))
		}
		break
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(results)
	}()

	output := make([]downloader.Outcome, 0, len(urls))
	for res := range results {
		output = append(output, res)
	}
	for _, job := range undispatched {
		outcome := downloader.Outcome{
			JobID:  job.ID,
			URL:    job.URL,
			Status: downloader.StatusFailed,
			Err:    downloader.CategorizedError{Category: downloader.CategoryUnknown, Reason: downloader.ReasonCanceled, Err: ctx.Err()},
		}
		if reporter != nil {
			reporter.Report(outcome)
		}
		output = append(output, outcome)
	}
	return output
}

func newJob(url string, cfg config.Config) downloader.Job {
	return downloader.Job{
		ID:             uuid.NewString(),
		URL:            url,
		VideoDir:       cfg.VideoDir,
		AudioDir:       cfg.AudioDir,
		TranscoderPath: cfg.TranscoderPath,
	}
}

// ExitCode picks the process exit code for a finished batch: the highest
// code among failed items, 130 when the batch was interrupted.
func ExitCode(ctx context.Context, outcomes []downloader.Outcome) int {
	code := 0
	for _, o := range outcomes {
		if o.Status != downloader.StatusFailed {
			continue
		}
		if c := downloader.ExitCode(o.Err); c > code {
			code = c
		}
	}
	if ctx.Err() != nil && code < 130 {
		code = 130
	}
	return code
}

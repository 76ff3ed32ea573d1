package downloader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
)

type fakeResolver struct {
	resolveFn func(ctx context.Context, url string) (*ResolvedVideo, error)
}

func (f fakeResolver) Resolve(ctx context.Context, url string) (*ResolvedVideo, error) {
	return f.resolveFn(ctx, url)
}

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recordingReporter) Report(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

type fakeRecorder struct {
	calls int
	err   error
}

func (f *fakeRecorder) RecordOutcome(ctx context.Context, o Outcome, resolved *ResolvedVideo) error {
	f.calls++
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob(t *testing.T, transcoder string) Job {
	base := t.TempDir()
	return Job{
		ID:             "job-1",
		URL:            "https://www.youtube.com/watch?v=abc123",
		VideoDir:       filepath.Join(base, "Videos"),
		AudioDir:       filepath.Join(base, "Audio"),
		TranscoderPath: transcoder,
	}
}

func staticResolver(src *countingSource) fakeResolver {
	return fakeResolver{resolveFn: func(ctx context.Context, url string) (*ResolvedVideo, error) {
		return &ResolvedVideo{
			ID:       "abc123",
			URL:      url,
			FileName: "Song_ Live.mp4",
			Title:    "Song: Live",
			Author:   "Some Artist",
			Open:     src.open,
		}, nil
	}}
}

func TestPipelineRunCompletes(t *testing.T) {
	transcoder, counter := writeFakeTranscoder(t, 0)
	src := &countingSource{payload: "video-bytes"}
	reporter := &recordingReporter{}
	recorder := &fakeRecorder{}
	p := &Pipeline{
		Resolver: staticResolver(src),
		Tags:     true,
		Recorder: recorder,
		Reporter: reporter,
		Logger:   discardLogger(),
	}
	job := testJob(t, transcoder)

	out := p.Run(context.Background(), job)
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %q (err %v), want completed", out.Status, out.Err)
	}
	if out.VideoState != VideoDownloaded || out.AudioState != AudioExtracted {
		t.Fatalf("states = %q/%q, want downloaded/extracted", out.VideoState, out.AudioState)
	}
	if out.VideoPath != filepath.Join(job.VideoDir, "Song_ Live.mp4") {
		t.Fatalf("VideoPath = %q", out.VideoPath)
	}
	if out.AudioPath != filepath.Join(job.AudioDir, "Song_ Live.mp3") {
		t.Fatalf("AudioPath = %q", out.AudioPath)
	}
	if out.JobID != job.ID || out.Title != "Song: Live" {
		t.Fatalf("outcome identity = %q/%q", out.JobID, out.Title)
	}
	if out.Skipped() {
		t.Fatalf("fresh outcome reported as skipped")
	}
	if len(reporter.outcomes) != 1 || recorder.calls != 1 {
		t.Fatalf("reported %d, recorded %d, want 1 each", len(reporter.outcomes), recorder.calls)
	}
	if n := invocations(t, counter); n != 1 {
		t.Fatalf("transcoder invoked %d times, want 1", n)
	}

	tag, err := id3v2.Open(out.AudioPath, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("id3v2.Open failed: %v", err)
	}
	defer tag.Close()
	if tag.Title() != "Song: Live" || tag.Artist() != "Some Artist" {
		t.Fatalf("tags = %q/%q, want title and artist", tag.Title(), tag.Artist())
	}
}

func TestPipelineRerunIsSkipped(t *testing.T) {
	transcoder, counter := writeFakeTranscoder(t, 0)
	src := &countingSource{payload: "video-bytes"}
	p := &Pipeline{Resolver: staticResolver(src), Logger: discardLogger()}
	job := testJob(t, transcoder)

	if out := p.Run(context.Background(), job); out.Status != StatusCompleted {
		t.Fatalf("first run failed: %v", out.Err)
	}
	out := p.Run(context.Background(), job)
	if out.Status != StatusCompleted {
		t.Fatalf("second run failed: %v", out.Err)
	}
	if out.VideoState != VideoExists || out.AudioState != AudioExists || !out.Skipped() {
		t.Fatalf("second run = %+v, want both artifacts existing", out)
	}
	if src.opens != 1 {
		t.Fatalf("byte source opened %d times, want 1", src.opens)
	}
	if n := invocations(t, counter); n != 1 {
		t.Fatalf("transcoder invoked %d times, want 1", n)
	}
}

func TestPipelineWithoutTranscoder(t *testing.T) {
	src := &countingSource{payload: "video-bytes"}
	p := &Pipeline{Resolver: staticResolver(src), Logger: discardLogger()}
	job := testJob(t, filepath.Join(t.TempDir(), "missing-ffmpeg"))

	out := p.Run(context.Background(), job)
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %q (err %v), want completed", out.Status, out.Err)
	}
	if out.VideoState != VideoDownloaded || out.AudioState != AudioSkipped {
		t.Fatalf("states = %q/%q, want downloaded/skipped", out.VideoState, out.AudioState)
	}
	if entries, _ := os.ReadDir(job.AudioDir); len(entries) != 0 {
		t.Fatalf("audio directory has %d entries, want none", len(entries))
	}
}

func TestPipelineFailures(t *testing.T) {
	tests := []struct {
		name       string
		resolver   fakeResolver
		exitCode   int
		wantCat    Category
		wantInErr  string
		wantVideo  bool
		transcoder bool
	}{
		{
			name: "resolution",
			resolver: fakeResolver{resolveFn: func(ctx context.Context, url string) (*ResolvedVideo, error) {
				return nil, errors.New("video unavailable")
			}},
			wantCat:   CategoryResolution,
			wantInErr: "unavailable",
		},
		{
			name:      "fetch",
			resolver:  staticResolver(&countingSource{payload: "part", err: errors.New("connection reset")}),
			wantCat:   CategoryIO,
			wantInErr: "connection reset",
		},
		{
			name:       "extraction",
			resolver:   staticResolver(&countingSource{payload: "video-bytes"}),
			exitCode:   1,
			transcoder: true,
			wantCat:    CategoryExtraction,
			wantInErr:  "bad input",
			wantVideo:  true,
		},
		{
			name: "panic",
			resolver: fakeResolver{resolveFn: func(ctx context.Context, url string) (*ResolvedVideo, error) {
				panic("boom")
			}},
			wantCat:   CategoryUnknown,
			wantInErr: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcoder := filepath.Join(t.TempDir(), "missing-ffmpeg")
			if tt.transcoder {
				transcoder, _ = writeFakeTranscoder(t, tt.exitCode)
			}
			reporter := &recordingReporter{}
			recorder := &fakeRecorder{}
			p := &Pipeline{Resolver: tt.resolver, Reporter: reporter, Recorder: recorder, Logger: discardLogger()}
			job := testJob(t, transcoder)

			out := p.Run(context.Background(), job)
			if out.Status != StatusFailed {
				t.Fatalf("Status = %q, want failed", out.Status)
			}
			if out.URL != job.URL || out.JobID != job.ID {
				t.Fatalf("outcome lost its job identity: %+v", out)
			}
			if got := CategoryOf(out.Err); got != tt.wantCat {
				t.Fatalf("CategoryOf = %q, want %q (err %v)", got, tt.wantCat, out.Err)
			}
			if !strings.Contains(out.Err.Error(), tt.wantInErr) {
				t.Fatalf("error %q does not mention %q", out.Err, tt.wantInErr)
			}
			if len(reporter.outcomes) != 1 {
				t.Fatalf("reported %d outcomes, want 1", len(reporter.outcomes))
			}
			if recorder.calls != 0 {
				t.Fatalf("failed outcome was recorded")
			}
			if (out.VideoPath != "") != tt.wantVideo {
				t.Fatalf("VideoPath = %q, wantVideo %v", out.VideoPath, tt.wantVideo)
			}
		})
	}
}

func TestPipelineRecorderErrorDoesNotFailItem(t *testing.T) {
	src := &countingSource{payload: "video-bytes"}
	recorder := &fakeRecorder{err: errors.New("database is locked")}
	p := &Pipeline{Resolver: staticResolver(src), Recorder: recorder, Logger: discardLogger()}

	out := p.Run(context.Background(), testJob(t, ""))
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %q (err %v), want completed", out.Status, out.Err)
	}
	if recorder.calls != 1 {
		t.Fatalf("recorder called %d times, want 1", recorder.calls)
	}
}

package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	audioExt      = ".mp3"
	stderrTailLen = 2048
)

// AudioState records what the extractor did for one item.
type AudioState string

const (
	AudioExtracted AudioState = "extracted"
	AudioExists    AudioState = "exists"
	AudioSkipped   AudioState = "skipped"
)

// ExtractResult is the outcome of a successful Extract. Path is empty when
// State is AudioSkipped.
type ExtractResult struct {
	Path   string
	State  AudioState
	Output string // transcoder stdout, kept for diagnostics
}

// Extractor derives an audio file from a downloaded video by running an
// external transcoder.
type Extractor struct {
	// Timeout bounds a single transcoder run. Zero means no bound.
	Timeout time.Duration
	// Lenient ignores a non-zero transcoder exit status.
	Lenient bool
	Logger  *slog.Logger
}

// Extract writes audioDir/<sanitized title>.mp3 unless an audio file for the
// title already exists under its raw or sanitized name. A transcoder missing
// at transcoderPath is reported as AudioSkipped rather than an error.
func (e Extractor) Extract(ctx context.Context, resolved *ResolvedVideo, videoPath, audioDir, transcoderPath string) (ExtractResult, error) {
	if resolved == nil {
		return ExtractResult{}, wrapCategory(CategoryExtraction, errors.New("nil resolved video"))
	}

	// The raw title only counts when it names a file directly inside audioDir.
	rawPath := filepath.Join(audioDir, resolved.Title+audioExt)
	if filepath.Dir(rawPath) == filepath.Clean(audioDir) {
		exists, err := fileExists(rawPath)
		if err != nil {
			return ExtractResult{}, wrapCategory(CategoryIO, err)
		}
		if exists {
			return ExtractResult{Path: rawPath, State: AudioExists}, nil
		}
	}
	audioPath := AudioPath(audioDir, resolved.Title)
	exists, err := fileExists(audioPath)
	if err != nil {
		return ExtractResult{}, wrapCategory(CategoryIO, err)
	}
	if exists {
		return ExtractResult{Path: audioPath, State: AudioExists}, nil
	}

	if !transcoderAvailable(transcoderPath) {
		e.logger().Debug("transcoder not found, skipping audio extraction", "transcoder", transcoderPath)
		return ExtractResult{State: AudioSkipped}, nil
	}

	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return ExtractResult{}, wrapCategory(CategoryIO, fmt.Errorf("creating audio directory: %w", err))
	}

	output, err := e.run(ctx, transcoderPath, videoPath, audioPath)
	if err != nil {
		return ExtractResult{}, err
	}
	return ExtractResult{Path: audioPath, State: AudioExtracted, Output: output}, nil
}

// AudioPath is the sanitized audio location for title inside audioDir.
func AudioPath(audioDir, title string) string {
	return filepath.Join(audioDir, Sanitize(title)+audioExt)
}

// TranscoderArgs returns the arguments passed to the transcoder:
// -i file:<videoPath> -y file:<audioPath>.
func TranscoderArgs(videoPath, audioPath string) []string {
	return ffmpeg.Input("file:"+videoPath).
		Output("file:"+audioPath, ffmpeg.KwArgs{"y": ""}).
		GetArgs()
}

func (e Extractor) run(ctx context.Context, transcoderPath, videoPath, audioPath string) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := TranscoderArgs(videoPath, audioPath)
	cmd := exec.CommandContext(ctx, transcoderPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &tailWriter{buf: &stderr, max: stderrTailLen}

	e.logger().Debug("running transcoder", "cmd", transcoderPath, "args", strings.Join(args, " "))
	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	if output != "" {
		e.logger().Debug("transcoder output", "output", output)
	}
	if err == nil {
		return output, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && e.Lenient && ctx.Err() == nil {
		e.logger().Warn("transcoder exited with non-zero status", "code", exitErr.ExitCode(), "audio", audioPath)
		return output, nil
	}
	// ffmpeg may leave a truncated file behind; drop it so the next run retries.
	os.Remove(audioPath)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output, wrapCategory(CategoryExtraction, fmt.Errorf("transcoder interrupted: %w", ctxErr))
	}
	if tail := strings.TrimSpace(stderr.String()); tail != "" {
		return output, wrapCategory(CategoryExtraction, fmt.Errorf("transcoder failed: %s: %w", lastLine(tail), err))
	}
	return output, wrapCategory(CategoryExtraction, fmt.Errorf("transcoder failed: %w", err))
}

func (e Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// transcoderAvailable reports whether path names an executable. Bare names
// are looked up on PATH.
func transcoderAvailable(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	_, err := exec.LookPath(path)
	return err == nil
}

// tailWriter keeps only the last max bytes written to it.
type tailWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.buf.Write(p)
	if over := w.buf.Len() - w.max; over > 0 {
		w.buf.Next(over)
	}
	return n, nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

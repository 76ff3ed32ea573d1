package downloader

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPrinterReportLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 3, PrinterOptions{})

	p.Report(Outcome{Status: StatusCompleted, VideoPath: "/v/a.mp4", VideoState: VideoDownloaded, AudioPath: "/a/a.mp3", AudioState: AudioExtracted, Bytes: 2048})
	p.Report(Outcome{Status: StatusCompleted, VideoPath: "/v/b.mp4", VideoState: VideoExists, AudioState: AudioExists})
	p.Report(Outcome{Status: StatusFailed, URL: "https://youtu.be/bad", Err: wrapCategory(CategoryResolution, errors.New("video unavailable"))})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[1/3] OK") || !strings.Contains(lines[0], "/a/a.mp3") {
		t.Fatalf("unexpected OK line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[2/3] SKIP") {
		t.Fatalf("unexpected SKIP line: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "[3/3] FAIL") || !strings.Contains(lines[2], "(resolution)") {
		t.Fatalf("unexpected FAIL line: %q", lines[2])
	}
	if !strings.Contains(lines[3], "https://youtu.be/bad") {
		t.Fatalf("failure url line missing: %q", lines[3])
	}
}

func TestPrinterQuietOnlyFailures(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 2, PrinterOptions{Quiet: true})
	p.Report(Outcome{Status: StatusCompleted, VideoState: VideoDownloaded})
	if buf.Len() != 0 {
		t.Fatalf("quiet printer wrote success line: %q", buf.String())
	}
	p.Report(Outcome{Status: StatusFailed, Err: errors.New("boom")})
	if !strings.Contains(buf.String(), "[2/2] FAIL") {
		t.Fatalf("quiet printer dropped failure: %q", buf.String())
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 1, PrinterOptions{JSON: true})
	p.Report(Outcome{JobID: "j1", URL: "https://youtu.be/x", Status: StatusFailed, Err: wrapCategory(CategoryIO, errors.New("disk full"))})
	p.Summary(Summary{Total: 1, Failed: 1})

	dec := json.NewDecoder(&buf)
	var item map[string]any
	if err := dec.Decode(&item); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	if item["type"] != "item" || item["status"] != "failed" || item["category"] != "io" || item["error"] != "disk full" {
		t.Fatalf("unexpected item payload: %v", item)
	}
	if item["job_id"] != "j1" {
		t.Fatalf("job_id = %v, want j1", item["job_id"])
	}

	var summary map[string]any
	if err := dec.Decode(&summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if summary["type"] != "summary" || summary["failed"] != float64(1) {
		t.Fatalf("unexpected summary payload: %v", summary)
	}
}

func TestPrinterSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 0, PrinterOptions{})
	p.Summary(Summary{Total: 3, Completed: 2, Skipped: 1, Failed: 1, VideosDownloaded: 1, AudioExtracted: 1, Bytes: 512})
	want := "Summary: OK 1 | SKIP 1 | FAIL 1 | TOTAL 3 | VIDEO 1 | AUDIO 1 | SIZE 512B\n"
	if buf.String() != want {
		t.Fatalf("summary = %q, want %q", buf.String(), want)
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncateText = %q, want abc...", got)
	}
	if got := truncateText("abc", 0); got != "abc" {
		t.Fatalf("truncateText with no limit = %q, want abc", got)
	}
}

package downloader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00F5D4")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8"))
)

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	Quiet bool
	JSON  bool
	Color bool
}

// Printer writes one line per outcome plus a final summary. It is safe for
// concurrent use by the batch workers.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	opts    PrinterOptions
	columns int
	total   int
	done    int
}

// NewPrinter returns a Printer writing to out for a batch of total items.
func NewPrinter(out io.Writer, total int, opts PrinterOptions) *Printer {
	columns := terminalColumns()
	if columns <= 0 {
		columns = 100
	}
	return &Printer{out: out, opts: opts, columns: columns, total: total}
}

// Report implements Reporter.
func (p *Printer) Report(o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++

	if p.opts.JSON {
		p.emitJSON(o)
		return
	}
	if p.opts.Quiet && o.Status != StatusFailed {
		return
	}

	prefix := p.prefix()
	var status, detail string
	switch {
	case o.Status == StatusFailed:
		status = p.colorize("FAIL", failStyle)
		detail = fmt.Sprintf("%s (%s)", o.Err, CategoryOf(o.Err))
	case o.Skipped():
		status = p.colorize("SKIP", skipStyle)
		detail = fmt.Sprintf("%s exists", o.VideoPath)
		if o.AudioState == AudioSkipped {
			detail += ", no transcoder"
		}
	default:
		status = p.colorize("OK", okStyle)
		detail = fmt.Sprintf("%s %s", padLeft(humanBytes(o.Bytes), 9), o.VideoPath)
		switch o.AudioState {
		case AudioExtracted:
			detail += " + " + o.AudioPath
		case AudioExists:
			detail += " (audio exists)"
		case AudioSkipped:
			detail += " (audio skipped)"
		}
	}

	maxDetail := p.columns - len(prefix) - 8
	line := fmt.Sprintf("%s %s %s", prefix, status, truncateText(detail, maxDetail))
	if o.Status == StatusFailed {
		line += "\n" + strings.Repeat(" ", len(prefix)+1) + p.colorize(truncateText(o.URL, maxDetail), dimStyle)
	}
	fmt.Fprintln(p.out, line)
}

// Summary writes the final counts line.
func (p *Printer) Summary(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.opts.JSON {
		enc := json.NewEncoder(p.out)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(struct {
			Type string `json:"type"`
			Summary
		}{Type: "summary", Summary: s})
		return
	}
	if p.opts.Quiet && s.Failed == 0 {
		return
	}
	fmt.Fprintf(p.out, "Summary: %s %d | %s %d | %s %d | TOTAL %d | VIDEO %d | AUDIO %d | SIZE %s\n",
		p.colorize("OK", okStyle), s.Completed-s.Skipped,
		p.colorize("SKIP", skipStyle), s.Skipped,
		p.colorize("FAIL", failStyle), s.Failed,
		s.Total, s.VideosDownloaded, s.AudioExtracted, humanBytes(s.Bytes))
}

func (p *Printer) emitJSON(o Outcome) {
	payload := struct {
		Type     string `json:"type"`
		Category string `json:"category,omitempty"`
		Reason   string `json:"reason,omitempty"`
		Error    string `json:"error,omitempty"`
		Outcome
	}{Type: "item", Outcome: o}
	if o.Err != nil {
		payload.Category = string(CategoryOf(o.Err))
		payload.Reason = string(ReasonOf(o.Err))
		payload.Error = o.Err.Error()
	}
	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func (p *Printer) prefix() string {
	total := p.total
	if total < p.done {
		total = p.done
	}
	width := len(strconv.Itoa(total))
	return fmt.Sprintf("[%*d/%d]", width, p.done, total)
}

func (p *Printer) colorize(text string, style lipgloss.Style) string {
	if !p.opts.Color {
		return text
	}
	return style.Render(text)
}

func padLeft(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return strings.Repeat(" ", width-len(value)) + value
}

func truncateText(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}

func terminalColumns() int {
	if columns := os.Getenv("COLUMNS"); columns != "" {
		if val, err := strconv.Atoi(columns); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

// SupportsColor reports whether ANSI styling should be used on f.
func SupportsColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" || os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

package downloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var errNoProgressiveFormat = errors.New("no progressive (audio+video) formats available")

// selectFormat picks the progressive format (audio and video in one stream)
// with the highest resolution, breaking ties on bitrate.
func selectFormat(video *youtube.Video) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range video.Formats {
		format := &video.Formats[i]
		if format.AudioChannels == 0 {
			continue
		}
		if format.Width == 0 || format.Height == 0 {
			continue
		}
		if best == nil || betterFormat(format, best) {
			best = format
		}
	}
	if best == nil {
		return nil, errNoProgressiveFormat
	}
	return best, nil
}

func betterFormat(candidate, current *youtube.Format) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return bitrateForFormat(candidate) > bitrateForFormat(current)
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return 0
}

func mimeToExt(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(strings.TrimSpace(mime), "/")
	if len(parts) == 2 {
		switch parts[1] {
		case "3gpp":
			return "3gp"
		case "":
			return "bin"
		default:
			return parts[1]
		}
	}
	return "bin"
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for n >= unit*div && exp < 4 {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f%s", value, suffix[exp])
}

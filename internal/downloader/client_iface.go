package downloader

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
)

// YouTubeClient is the subset of *youtube.Client the resolver depends on.
// It decouples resolution from the concrete client so tests can supply a mock.
type YouTubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// NewYouTubeClient returns a client whose individual HTTP requests are bounded
// by timeout (0 disables the bound).
func NewYouTubeClient(timeout time.Duration) YouTubeClient {
	return &youtube.Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Compile-time check: *youtube.Client must implement YouTubeClient.
var _ YouTubeClient = (*youtube.Client)(nil)

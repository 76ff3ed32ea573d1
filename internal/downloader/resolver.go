package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ResolvedVideo is the identity of one remote video plus a deferred source
// for its bytes. It belongs to the pipeline invocation that resolved it.
type ResolvedVideo struct {
	ID       string
	URL      string
	FileName string // canonical on-disk name, extension included
	Title    string
	Author   string
	Duration time.Duration
	Size     int64

	// Open starts reading the full payload. The returned size is -1 or 0
	// when the length is unknown.
	Open func(ctx context.Context) (io.ReadCloser, int64, error)
}

// Resolver turns a URL into a ResolvedVideo. All failures carry
// CategoryResolution.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*ResolvedVideo, error)
}

// YouTubeResolver resolves videos with a YouTubeClient and binds the byte
// source to the best progressive format.
type YouTubeResolver struct {
	client  YouTubeClient
	limiter *rate.Limiter
}

// NewYouTubeResolver builds a resolver. perSecond > 0 throttles metadata
// lookups across all workers sharing the resolver.
func NewYouTubeResolver(client YouTubeClient, perSecond float64) *YouTubeResolver {
	r := &YouTubeResolver{client: client}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return r
}

func (r *YouTubeResolver) Resolve(ctx context.Context, rawURL string) (*ResolvedVideo, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, wrapCategory(CategoryResolution, errors.New("empty url"))
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, wrapCategory(CategoryResolution, fmt.Errorf("waiting for rate limiter: %w", err))
		}
	}

	video, err := r.client.GetVideoContext(ctx, NormalizeVideoURL(rawURL))
	if err != nil {
		return nil, wrapCategory(CategoryResolution, fmt.Errorf("fetching metadata: %w", err))
	}
	format, err := selectFormat(video)
	if err != nil {
		return nil, CategorizedError{Category: CategoryResolution, Reason: ReasonUnavailable, Err: err}
	}

	title := stringsOrFallback(video.Title, video.ID)
	if title == "" {
		return nil, CategorizedError{Category: CategoryResolution, Reason: ReasonUnavailable, Err: errors.New("video has neither title nor id")}
	}

	client := r.client
	return &ResolvedVideo{
		ID:       video.ID,
		URL:      rawURL,
		FileName: Sanitize(title) + "." + mimeToExt(format.MimeType),
		Title:    title,
		Author:   video.Author,
		Duration: video.Duration,
		Size:     format.ContentLength,
		Open: func(ctx context.Context) (io.ReadCloser, int64, error) {
			return client.GetStreamContext(ctx, video, format)
		},
	}, nil
}

func stringsOrFallback(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

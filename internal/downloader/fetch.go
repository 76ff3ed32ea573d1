package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const partSuffix = ".part"

// VideoState records what the fetcher did for one item.
type VideoState string

const (
	VideoDownloaded VideoState = "downloaded"
	VideoExists     VideoState = "exists"
)

// FetchResult is the outcome of a successful Fetch.
type FetchResult struct {
	Path  string
	State VideoState
	Bytes int64
}

// Fetcher downloads video payloads into a directory.
type Fetcher struct{}

// Fetch stores resolved's payload at videoDir/FileName. An existing file at
// that path is returned as-is without opening the byte source. New payloads
// are written to a temporary file in videoDir and renamed into place, so a
// partial download is never visible under the final name.
func (Fetcher) Fetch(ctx context.Context, resolved *ResolvedVideo, videoDir string) (FetchResult, error) {
	if resolved == nil || resolved.Open == nil {
		return FetchResult{}, wrapCategory(CategoryIO, errors.New("resolved video has no byte source"))
	}
	path := filepath.Join(videoDir, resolved.FileName)

	exists, err := fileExists(path)
	if err != nil {
		return FetchResult{}, wrapCategory(CategoryIO, err)
	}
	if exists {
		return FetchResult{Path: path, State: VideoExists}, nil
	}

	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return FetchResult{}, wrapCategory(CategoryIO, fmt.Errorf("creating video directory: %w", err))
	}

	stream, size, err := resolved.Open(ctx)
	if err != nil {
		return FetchResult{}, wrapCategory(CategoryIO, fmt.Errorf("starting stream: %w", err))
	}
	defer stream.Close()
	if size <= 0 {
		size = resolved.Size
	}

	written, err := writeAtomic(ctx, path, stream, size)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Path: path, State: VideoDownloaded, Bytes: written}, nil
}

// writeAtomic copies src into path through a temporary file. When size > 0
// a stream of any other length is rejected and nothing is renamed into place.
func writeAtomic(ctx context.Context, path string, src io.Reader, size int64) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*"+partSuffix)
	if err != nil {
		return 0, wrapCategory(CategoryIO, fmt.Errorf("opening temp file: %w", err))
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	written, err := copyWithContext(ctx, tmp, src)
	if err != nil {
		return written, wrapCategory(CategoryIO, fmt.Errorf("download failed: %w", err))
	}
	if size > 0 && written != size {
		return written, wrapCategory(CategoryIO, fmt.Errorf("download incomplete: got %d of %d bytes: %w", written, size, io.ErrUnexpectedEOF))
	}
	if err := tmp.Sync(); err != nil {
		return written, wrapCategory(CategoryIO, fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return written, wrapCategory(CategoryIO, fmt.Errorf("closing temp file: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		committed = true
		return written, wrapCategory(CategoryIO, fmt.Errorf("renaming output: %w", err))
	}
	committed = true
	return written, nil
}

// fileExists reports whether a regular file exists at path. A directory in
// its place is an error.
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("output path is a directory: %s", path)
	}
	return true, nil
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

// copyWithContext copies src into dst, stopping early when ctx is done.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, readerFunc(func(p []byte) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return src.Read(p)
	}))
}

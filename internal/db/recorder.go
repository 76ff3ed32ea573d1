package db

import (
	"context"
	"errors"
	"os"

	"github.com/lvcoi/ytbatch/internal/downloader"
)

// RecordOutcome stores the video and audio artifacts of a completed outcome.
// Failed outcomes are ignored: the catalog only describes files on disk.
func (d *DB) RecordOutcome(ctx context.Context, outcome downloader.Outcome, resolved *downloader.ResolvedVideo) error {
	if outcome.Status != downloader.StatusCompleted {
		return nil
	}

	base := ArtifactRecord{
		SourceURL: outcome.URL,
		Title:     outcome.Title,
		JobID:     outcome.JobID,
	}
	if resolved != nil {
		base.VideoID = resolved.ID
		base.Author = resolved.Author
		base.Duration = int(resolved.Duration.Seconds())
	}

	var errs []error
	if outcome.VideoPath != "" {
		video := base
		video.Kind = KindVideo
		video.FilePath = outcome.VideoPath
		video.State = string(outcome.VideoState)
		video.FileSize = fileSize(outcome.VideoPath)
		if _, err := d.UpsertArtifact(ctx, video); err != nil {
			errs = append(errs, err)
		}
	}
	if outcome.AudioPath != "" {
		audio := base
		audio.Kind = KindAudio
		audio.FilePath = outcome.AudioPath
		audio.State = string(outcome.AudioState)
		audio.FileSize = fileSize(outcome.AudioPath)
		if _, err := d.UpsertArtifact(ctx, audio); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

var _ downloader.ArtifactRecorder = (*DB)(nil)

package downloader

// Summary aggregates a batch of outcomes.
type Summary struct {
	Total            int   `json:"total"`
	Completed        int   `json:"completed"`
	Failed           int   `json:"failed"`
	Skipped          int   `json:"skipped"`
	VideosDownloaded int   `json:"videos_downloaded"`
	AudioExtracted   int   `json:"audio_extracted"`
	AudioSkipped     int   `json:"audio_skipped"`
	Bytes            int64 `json:"bytes"`
}

// Summarize counts outcomes by status and artifact state.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			s.Failed++
			continue
		}
		s.Completed++
		if o.Skipped() {
			s.Skipped++
		}
		if o.VideoState == VideoDownloaded {
			s.VideosDownloaded++
		}
		switch o.AudioState {
		case AudioExtracted:
			s.AudioExtracted++
		case AudioSkipped:
			s.AudioSkipped++
		}
		s.Bytes += o.Bytes
	}
	return s
}

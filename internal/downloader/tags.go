package downloader

import (
	"fmt"
	"path/filepath"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
)

// embedAudioTags writes ID3v2 title, artist and source frames into a freshly
// extracted mp3. Other extensions are left alone.
func embedAudioTags(resolved *ResolvedVideo, audioPath string) error {
	if resolved == nil || audioPath == "" {
		return nil
	}
	if strings.ToLower(filepath.Ext(audioPath)) != audioExt {
		return nil
	}

	tag, err := id3v2.Open(audioPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening id3 tag: %w", err)
	}
	defer tag.Close()

	if resolved.Title != "" {
		tag.SetTitle(resolved.Title)
	}
	if resolved.Author != "" {
		tag.SetArtist(resolved.Author)
	}
	if resolved.URL != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "source",
			Text:        resolved.URL,
		})
	}
	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving id3 tag: %w", err)
	}
	return nil
}

// Package tags reads audio file metadata into library items. It is the
// tag-reader boundary: each call returns one complete bundle for one file,
// or an error.
package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/franz/music-librarian/internal/store"
	"github.com/franz/music-librarian/internal/util"
)

// audioExtensions maps supported file extensions to format tags
var audioExtensions = map[string]string{
	".mp3":  "MP3",
	".flac": "FLAC",
	".ogg":  "Ogg Vorbis",
	".oga":  "Ogg Vorbis",
	".opus": "Opus",
	".m4a":  "AAC",
	".aac":  "AAC",
	".alac": "ALAC",
	".wav":  "WAV",
	".aiff": "AIFF",
	".aif":  "AIFF",
}

// IsAudioFile reports whether the path has a supported audio extension
func IsAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FormatForPath returns the audio format tag for a file path
func FormatForPath(path string) string {
	if format, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return format
	}
	return "Unknown"
}

// ReadFile reads the tags and audio properties of one file into an item.
// Missing text tags get placeholder values so the required item fields are
// never empty; technical fields (bitrate, duration) come from inspecting
// the file itself.
func ReadFile(path string) (*store.Item, error) {
	if !IsAudioFile(path) {
		return nil, fmt.Errorf("%w: file type %q", util.ErrUnsupported, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	item := &store.Item{
		Path:   path,
		Format: FormatForPath(path),
		Added:  time.Now().UTC(),
		Mtime:  info.ModTime().UTC(),
	}

	m, err := tag.ReadFrom(f)
	if err == nil {
		item.Title = m.Title()
		item.Artist = m.Artist()
		item.Album = m.Album()
		item.AlbumArtist = m.AlbumArtist()
		item.Genre = m.Genre()
		item.Year = m.Year()
		item.Track, _ = m.Track()
		item.Disc, _ = m.Disc()
	}
	// A file with no readable tag block is still importable; the
	// placeholder defaults below cover it.

	if props, err := probeAudio(path); err == nil {
		item.Bitrate = props.BitrateKbps
		item.Length = props.LengthSeconds
	}

	applyDefaults(item)
	return item, nil
}

// applyDefaults fills the required text fields so an untagged file can
// still be imported
func applyDefaults(item *store.Item) {
	if item.Title == "" {
		base := filepath.Base(item.Path)
		item.Title = strings.TrimSuffix(base, filepath.Ext(base))
		if item.Title == "" {
			item.Title = "Unknown"
		}
	}
	if item.Artist == "" {
		item.Artist = "Unknown Artist"
	}
	if item.Album == "" {
		item.Album = "Unknown Album"
	}
}

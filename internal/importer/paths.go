package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/franz/music-librarian/internal/store"
)

// destinationPath computes where a file lands inside the library tree,
// expanding the configured path format and keeping the source extension
func (im *Importer) destinationPath(item *store.Item) string {
	expand := func(name string) string {
		switch name {
		case "albumartist":
			return item.EffectiveAlbumArtist()
		case "artist":
			return item.Artist
		case "album":
			return item.Album
		case "title":
			return item.Title
		case "genre":
			return item.Genre
		case "format":
			return item.Format
		case "track":
			return fmt.Sprintf("%02d", item.Track)
		case "disc":
			return strconv.Itoa(item.Disc)
		case "year":
			if item.Year == 0 {
				return ""
			}
			return strconv.Itoa(item.Year)
		default:
			return "$" + name
		}
	}

	var relative strings.Builder
	format := im.cfg.PathFormat
	for len(format) > 0 {
		idx := strings.IndexByte(format, '$')
		if idx < 0 {
			relative.WriteString(format)
			break
		}
		relative.WriteString(format[:idx])
		format = format[idx+1:]

		end := 0
		for end < len(format) && (format[end] == '_' || isAlnum(format[end])) {
			end++
		}
		relative.WriteString(expand(format[:end]))
		format = format[end:]
	}

	// Sanitize each path component but keep the separators the format
	// itself introduces
	parts := strings.Split(relative.String(), "/")
	for i, part := range parts {
		parts[i] = sanitizeComponent(part)
	}

	ext := strings.ToLower(filepath.Ext(item.Path))
	if ext == "" {
		ext = ".mp3"
	}

	return filepath.Join(im.cfg.LibraryDir, filepath.Join(parts...)) + ext
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// sanitizeComponent strips characters that are unsafe in a single path
// component
func sanitizeComponent(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "_"
	}
	return out
}

// transferFile performs the configured copy/move/link of a source file to
// its destination. The core only records the final path; the transfer is
// the file-mover collaborator.
func transferFile(action Action, src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	switch action {
	case ActionMove:
		if err := os.Rename(src, dest); err == nil {
			return nil
		}
		// Cross-device move falls back to copy and remove
		if err := copyFile(src, dest); err != nil {
			return err
		}
		return os.Remove(src)
	case ActionLink:
		return os.Symlink(src, dest)
	default:
		return copyFile(src, dest)
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	return out.Close()
}

package store

import (
	"fmt"
	"strings"

	"github.com/franz/music-librarian/internal/query"
)

// QueryItems returns items matching a query string. An empty query lists
// the whole library; a query containing structured syntax is translated to
// relational predicates; anything else is a free-text search against the
// FTS index, ranked by relevance.
func (s *Store) QueryItems(q string) ([]*Item, error) {
	q = strings.TrimSpace(q)

	if q == "" {
		return s.queryItemsSQL("ORDER BY artist, album, disc, track")
	}

	if query.IsStructured(q) {
		clause, err := query.ToSQL(q)
		if err != nil {
			return nil, err
		}
		return s.queryItemsSQL(clause)
	}

	return s.SearchItems(q)
}

// SearchItems performs a full-text search over title, artist, album,
// albumartist and genre, preserving the index's relevance order through
// hydration.
func (s *Store) SearchItems(text string) ([]*Item, error) {
	rows, err := s.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		JOIN (SELECT rowid, rank FROM items_fts WHERE items_fts MATCH ?) AS hits
		  ON hits.rowid = items.id
		ORDER BY hits.rank
	`, escapeFTSQuery(text))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (s *Store) queryItemsSQL(clause string) ([]*Item, error) {
	rows, err := s.db.Query("SELECT " + itemColumns + " FROM items " + clause)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// QueryAlbums returns albums matching a query string. Album search matches
// the album identity (title or artist), one row per album rather than one
// per track.
func (s *Store) QueryAlbums(q string) ([]*Album, error) {
	q = strings.TrimSpace(q)

	if q == "" {
		rows, err := s.db.Query("SELECT " + albumColumns + " FROM albums ORDER BY albumartist, year, album")
		if err != nil {
			return nil, fmt.Errorf("failed to query albums: %w", err)
		}
		defer rows.Close()
		return collectAlbums(rows)
	}

	pattern := "%" + q + "%"
	rows, err := s.db.Query(`
		SELECT `+albumColumns+` FROM albums
		WHERE album LIKE ? OR albumartist LIKE ?
		ORDER BY albumartist, year, album
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	return collectAlbums(rows)
}

// Stats summarizes the library
type Stats struct {
	Tracks      int64
	Albums      int64
	Artists     int64
	TotalLength float64 // seconds
	TotalSize   uint64  // approximate bytes, derived from bitrate and length
}

// Stats returns library statistics
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&st.Tracks); err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM albums").Scan(&st.Albums); err != nil {
		return nil, fmt.Errorf("failed to count albums: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT artist) FROM items").Scan(&st.Artists); err != nil {
		return nil, fmt.Errorf("failed to count artists: %w", err)
	}
	if err := s.db.QueryRow("SELECT COALESCE(SUM(length), 0) FROM items").Scan(&st.TotalLength); err != nil {
		return nil, fmt.Errorf("failed to sum length: %w", err)
	}

	var size float64
	err := s.db.QueryRow("SELECT COALESCE(SUM(bitrate * length * 1000 / 8), 0) FROM items").Scan(&size)
	if err != nil {
		return nil, fmt.Errorf("failed to sum size: %w", err)
	}
	if size > 0 {
		st.TotalSize = uint64(size)
	}

	return st, nil
}

// escapeFTSQuery prepares a free-text query for FTS5 MATCH: each word is
// quoted, with implicit AND between words
func escapeFTSQuery(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return `""`
	}

	quoted := make([]string, len(words))
	for i, word := range words {
		quoted[i] = `"` + strings.ReplaceAll(word, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/music-librarian/internal/util"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

const albumColumns = `id, album, albumartist, COALESCE(year, 0), COALESCE(artpath, ''),
       COALESCE(mb_albumid, ''), added`

// InsertAlbum inserts an album and sets its ID.
// Title and artist are required fields.
func (s *Store) InsertAlbum(a *Album) error {
	return s.Transaction(func(tx *sql.Tx) error {
		return insertAlbum(tx, a)
	})
}

func insertAlbum(q dbtx, a *Album) error {
	if a.Album == "" || a.AlbumArtist == "" {
		return fmt.Errorf("%w: album title and artist are required", util.ErrConstraint)
	}

	result, err := q.Exec(`
		INSERT INTO albums (album, albumartist, year, artpath, mb_albumid, added)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Album, a.AlbumArtist, nullInt(a.Year), nullStr(a.ArtPath), nullStr(a.MBAlbumID), formatTime(a.Added))
	if err != nil {
		return fmt.Errorf("failed to insert album: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get album ID: %w", err)
	}
	a.ID = id

	return nil
}

// GetAlbum retrieves an album by ID
func (s *Store) GetAlbum(id int64) (*Album, error) {
	return getAlbum(s.db, id)
}

func getAlbum(q dbtx, id int64) (*Album, error) {
	row := q.QueryRow("SELECT "+albumColumns+" FROM albums WHERE id = ?", id)
	a, err := scanAlbum(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: album %d", util.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return a, nil
}

// UpdateAlbum updates an album row by a.ID. Fields used in denormalized
// form on items (album, albumartist, year, mb_albumid) are propagated to
// the album's items in the same transaction, which also refreshes their
// FTS entries via the update trigger.
func (s *Store) UpdateAlbum(a *Album) error {
	if a.Album == "" || a.AlbumArtist == "" {
		return fmt.Errorf("%w: album title and artist are required", util.ErrConstraint)
	}

	return s.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE albums SET album = ?, albumartist = ?, year = ?, artpath = ?, mb_albumid = ?
			WHERE id = ?
		`, a.Album, a.AlbumArtist, nullInt(a.Year), nullStr(a.ArtPath), nullStr(a.MBAlbumID), a.ID)
		if err != nil {
			return fmt.Errorf("failed to update album: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: album %d", util.ErrNotFound, a.ID)
		}

		_, err = tx.Exec(`
			UPDATE items SET album = ?, albumartist = ?, year = ?, mb_albumid = ?
			WHERE album_id = ?
		`, a.Album, a.AlbumArtist, nullInt(a.Year), nullStr(a.MBAlbumID), a.ID)
		if err != nil {
			return fmt.Errorf("failed to propagate album fields: %w", err)
		}

		return nil
	})
}

// DeleteAlbum removes an album. Its items are not deleted; their album
// reference becomes null and they remain queryable as orphans.
func (s *Store) DeleteAlbum(id int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE items SET album_id = NULL WHERE album_id = ?", id); err != nil {
			return fmt.Errorf("failed to orphan items: %w", err)
		}

		result, err := tx.Exec("DELETE FROM albums WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete album: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: album %d", util.ErrNotFound, id)
		}

		return nil
	})
}

// ListAlbums retrieves all albums ordered by insertion
func (s *Store) ListAlbums() ([]*Album, error) {
	rows, err := s.db.Query("SELECT " + albumColumns + " FROM albums ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	return collectAlbums(rows)
}

// ResolveAlbum resolves an album identity to a row id, creating the row if
// necessary. Lookup is two-tier: the MusicBrainz release id when present,
// otherwise the (albumartist, album) natural key. When an existing album is
// found, fields it was missing (year, art path, catalog id) are filled from
// the candidate.
func (s *Store) ResolveAlbum(tx *sql.Tx, a *Album) (int64, error) {
	existing, err := findAlbum(tx, a)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		if err := insertAlbum(tx, a); err != nil {
			return 0, err
		}
		return a.ID, nil
	}

	changed := false
	if existing.Year == 0 && a.Year != 0 {
		existing.Year = a.Year
		changed = true
	}
	if existing.ArtPath == "" && a.ArtPath != "" {
		existing.ArtPath = a.ArtPath
		changed = true
	}
	if existing.MBAlbumID == "" && a.MBAlbumID != "" {
		existing.MBAlbumID = a.MBAlbumID
		changed = true
	}

	if changed {
		_, err := tx.Exec(`
			UPDATE albums SET year = ?, artpath = ?, mb_albumid = ? WHERE id = ?
		`, nullInt(existing.Year), nullStr(existing.ArtPath), nullStr(existing.MBAlbumID), existing.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to fill album fields: %w", err)
		}
	}

	*a = *existing
	return existing.ID, nil
}

// SetAlbumArt records the resolved cover art path for an album
func (s *Store) SetAlbumArt(id int64, artPath string) error {
	result, err := s.db.Exec("UPDATE albums SET artpath = ? WHERE id = ?", nullStr(artPath), id)
	if err != nil {
		return fmt.Errorf("failed to set album art: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: album %d", util.ErrNotFound, id)
	}
	return nil
}

func findAlbum(q dbtx, a *Album) (*Album, error) {
	if a.MBAlbumID != "" {
		row := q.QueryRow("SELECT "+albumColumns+" FROM albums WHERE mb_albumid = ?", a.MBAlbumID)
		found, err := scanAlbum(row)
		if err == nil {
			return found, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to look up album by catalog id: %w", err)
		}
	}

	row := q.QueryRow(`
		SELECT `+albumColumns+` FROM albums
		WHERE albumartist = ? COLLATE NOCASE AND album = ? COLLATE NOCASE
	`, a.AlbumArtist, a.Album)
	found, err := scanAlbum(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up album by natural key: %w", err)
	}
	return found, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlbum(row rowScanner) (*Album, error) {
	a := &Album{}
	var added string
	err := row.Scan(&a.ID, &a.Album, &a.AlbumArtist, &a.Year, &a.ArtPath, &a.MBAlbumID, &added)
	if err != nil {
		return nil, err
	}
	a.Added = parseTime(added)
	return a, nil
}

func collectAlbums(rows *sql.Rows) ([]*Album, error) {
	var albums []*Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

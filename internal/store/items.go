package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/franz/music-librarian/internal/util"
)

const itemColumns = `id, COALESCE(album_id, 0), path, title, artist, album,
       COALESCE(albumartist, ''), COALESCE(genre, ''), COALESCE(year, 0),
       COALESCE(track, 0), COALESCE(disc, 0), format, bitrate, length,
       COALESCE(mb_trackid, ''), COALESCE(mb_albumid, ''), added, mtime`

// modifiableFields are the item fields the modify operation may edit
// directly. Text fields route through the same UPDATE as everything else,
// so the FTS triggers cover them.
var modifiableFields = map[string]bool{
	"title":       true,
	"artist":      true,
	"album":       true,
	"albumartist": true,
	"genre":       true,
	"year":        true,
	"track":       true,
	"disc":        true,
}

func validateItem(i *Item) error {
	if i.Path == "" || i.Title == "" || i.Artist == "" || i.Album == "" {
		return fmt.Errorf("%w: path, title, artist and album are required", util.ErrConstraint)
	}
	return nil
}

// InsertItem inserts an item and sets its ID. Fails with a constraint
// violation if a required field is empty or an item with the same path
// already exists; callers should use UpsertItem for re-import semantics.
func (s *Store) InsertItem(i *Item) error {
	return s.Transaction(func(tx *sql.Tx) error {
		return insertItem(tx, i)
	})
}

func insertItem(q dbtx, i *Item) error {
	if err := validateItem(i); err != nil {
		return err
	}

	var count int
	if err := q.QueryRow("SELECT COUNT(*) FROM items WHERE path = ?", i.Path).Scan(&count); err != nil {
		return fmt.Errorf("failed to check path: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: item path %s already exists", util.ErrConstraint, i.Path)
	}

	result, err := q.Exec(`
		INSERT INTO items (album_id, path, title, artist, album, albumartist, genre, year,
		                   track, disc, format, bitrate, length, mb_trackid, mb_albumid, added, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nullID(i.AlbumID), i.Path, i.Title, i.Artist, i.Album, nullStr(i.AlbumArtist),
		nullStr(i.Genre), nullInt(i.Year), nullInt(i.Track), nullInt(i.Disc),
		i.Format, i.Bitrate, i.Length, nullStr(i.MBTrackID), nullStr(i.MBAlbumID),
		formatTime(i.Added), formatTime(i.Mtime))
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get item ID: %w", err)
	}
	i.ID = id

	return nil
}

// GetItem retrieves an item by ID
func (s *Store) GetItem(id int64) (*Item, error) {
	row := s.db.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: item %d", util.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return i, nil
}

// GetItemByPath retrieves an item by its file path.
// Returns nil if no item has that path (not an error).
func (s *Store) GetItemByPath(path string) (*Item, error) {
	return getItemByPath(s.db, path)
}

func getItemByPath(q dbtx, path string) (*Item, error) {
	row := q.QueryRow("SELECT "+itemColumns+" FROM items WHERE path = ?", path)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by path: %w", err)
	}
	return i, nil
}

// UpdateItem replaces the tag-derived fields of an item with values re-read
// from its file. The item keeps its id, path, album reference, and added
// timestamp.
func (s *Store) UpdateItem(id int64, i *Item) error {
	return s.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE items SET title = ?, artist = ?, album = ?, albumartist = ?, genre = ?,
			       year = ?, track = ?, disc = ?, bitrate = ?, length = ?, mtime = ?
			WHERE id = ?
		`, i.Title, i.Artist, i.Album, nullStr(i.AlbumArtist), nullStr(i.Genre),
			nullInt(i.Year), nullInt(i.Track), nullInt(i.Disc), i.Bitrate, i.Length,
			formatTime(i.Mtime), id)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: item %d", util.ErrNotFound, id)
		}

		return nil
	})
}

// ModifyItem applies direct field edits to an item. Field names outside the
// modifiable set are rejected before any SQL runs.
func (s *Store) ModifyItem(id int64, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !modifiableFields[name] {
			return fmt.Errorf("%w: field %q is not modifiable", util.ErrConstraint, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return s.Transaction(func(tx *sql.Tx) error {
		for _, name := range names {
			result, err := tx.Exec("UPDATE items SET "+name+" = ? WHERE id = ?", fields[name], id)
			if err != nil {
				return fmt.Errorf("failed to modify item field %s: %w", name, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: item %d", util.ErrNotFound, id)
			}
		}
		return nil
	})
}

// DeleteItem removes an item. The delete trigger removes its FTS entry in
// the same transaction.
func (s *Store) DeleteItem(id int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM items WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: item %d", util.ErrNotFound, id)
		}

		return nil
	})
}

// ListItems retrieves all items ordered by insertion
func (s *Store) ListItems() ([]*Item, error) {
	rows, err := s.db.Query("SELECT " + itemColumns + " FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// UpsertItem inserts an item, or, when an item with the same path already
// exists, updates that row in place so the path stays unique and derived
// relations keep their item id. Runs inside the caller's transaction so an
// album upsert and its item upsert commit as one unit.
func (s *Store) UpsertItem(tx *sql.Tx, i *Item) (int64, error) {
	if err := validateItem(i); err != nil {
		return 0, err
	}

	existing, err := getItemByPath(tx, i.Path)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		if err := insertItem(tx, i); err != nil {
			return 0, err
		}
		return i.ID, nil
	}

	_, err = tx.Exec(`
		UPDATE items SET album_id = ?, title = ?, artist = ?, album = ?, albumartist = ?,
		       genre = ?, year = ?, track = ?, disc = ?, format = ?, bitrate = ?, length = ?,
		       mb_trackid = ?, mb_albumid = ?, mtime = ?
		WHERE id = ?
	`, nullID(i.AlbumID), i.Title, i.Artist, i.Album, nullStr(i.AlbumArtist),
		nullStr(i.Genre), nullInt(i.Year), nullInt(i.Track), nullInt(i.Disc),
		i.Format, i.Bitrate, i.Length, nullStr(i.MBTrackID), nullStr(i.MBAlbumID),
		formatTime(i.Mtime), existing.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to update item on re-import: %w", err)
	}

	i.ID = existing.ID
	i.Added = existing.Added
	return existing.ID, nil
}

func scanItem(row rowScanner) (*Item, error) {
	i := &Item{}
	var added, mtime string
	err := row.Scan(&i.ID, &i.AlbumID, &i.Path, &i.Title, &i.Artist, &i.Album,
		&i.AlbumArtist, &i.Genre, &i.Year, &i.Track, &i.Disc, &i.Format,
		&i.Bitrate, &i.Length, &i.MBTrackID, &i.MBAlbumID, &added, &mtime)
	if err != nil {
		return nil, err
	}
	i.Added = parseTime(added)
	i.Mtime = parseTime(mtime)
	return i, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

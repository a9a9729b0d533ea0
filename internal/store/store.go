package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/music-librarian/internal/util"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Store owns the library database: the albums and items tables and the
// full-text index kept in sync with them
type Store struct {
	db *sql.DB
}

// Open opens or creates a library database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// VerifyIndex cross-checks the FTS shadow index against the items table.
// The triggers make drift impossible through normal writes, so a mismatch
// means the database was modified by something else.
func (s *Store) VerifyIndex() error {
	var items, indexed int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&items); err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items_fts").Scan(&indexed); err != nil {
		return fmt.Errorf("failed to count index entries: %w", err)
	}

	if items != indexed {
		return fmt.Errorf("%w: %d items but %d index entries", util.ErrIndexDesync, items, indexed)
	}
	return nil
}

// RebuildIndex discards and rebuilds the FTS shadow index from the items
// table
func (s *Store) RebuildIndex() error {
	if _, err := s.db.Exec("INSERT INTO items_fts(items_fts) VALUES ('rebuild')"); err != nil {
		return fmt.Errorf("failed to rebuild search index: %w", err)
	}
	return nil
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// migrate applies database migrations. Every step uses CREATE IF NOT EXISTS
// semantics so re-running against an already-migrated database is a no-op.
// A failed step aborts the whole migration; a half-migrated schema is never
// committed.
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Schema v1 - albums, items, FTS shadow index and its triggers
	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Schema v2 - lookup indexes
	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction. The function's
// writes, including the triggered FTS index maintenance, commit or roll
// back as one unit.
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", util.ErrTxFailed, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", util.ErrTxFailed, err)
	}

	return nil
}

// Album groups items sharing a release identity
type Album struct {
	ID          int64
	Album       string
	AlbumArtist string
	Year        int    // 0 when unknown
	ArtPath     string // empty when no cover art has been fetched
	MBAlbumID   string // MusicBrainz release id, empty when unresolved
	Added       time.Time
}

// Item is one imported audio track
type Item struct {
	ID          int64
	AlbumID     int64 // 0 when the item has no resolved album
	Path        string
	Title       string
	Artist      string
	Album       string // denormalized from the album row for join-free listing
	AlbumArtist string
	Genre       string
	Year        int
	Track       int
	Disc        int
	Format      string
	Bitrate     int     // kbps
	Length      float64 // seconds
	MBTrackID   string
	MBAlbumID   string
	Added       time.Time
	Mtime       time.Time // last time the file's tags were read
}

// EffectiveAlbumArtist returns the albumartist, falling back to the track
// artist when the tag is absent
func (i *Item) EffectiveAlbumArtist() string {
	if i.AlbumArtist != "" {
		return i.AlbumArtist
	}
	return i.Artist
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

func nullID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

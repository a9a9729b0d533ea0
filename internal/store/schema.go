package store

// Schema v1 - albums, items, and the FTS shadow index.
//
// items_fts is an external-content FTS5 table over the item text fields.
// The three triggers are the index synchronization protocol: every insert,
// delete, or update on items rewrites the matching index entry inside the
// same transaction. FTS5 external-content tables cannot mutate an entry in
// place, so the update trigger deletes the old entry before adding the new
// one. Because the triggers live in the schema there is no write path that
// can leave the index stale.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS albums (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  album TEXT NOT NULL,
  albumartist TEXT NOT NULL,
  year INTEGER,
  artpath TEXT,
  mb_albumid TEXT,
  added TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  album_id INTEGER REFERENCES albums(id),
  path TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  artist TEXT NOT NULL,
  album TEXT NOT NULL,
  albumartist TEXT,
  genre TEXT,
  year INTEGER,
  track INTEGER,
  disc INTEGER,
  format TEXT NOT NULL,
  bitrate INTEGER NOT NULL,
  length REAL NOT NULL,
  mb_trackid TEXT,
  mb_albumid TEXT,
  added TEXT NOT NULL,
  mtime TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
  title, artist, album, albumartist, genre,
  content='items',
  content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON items BEGIN
  INSERT INTO items_fts(rowid, title, artist, album, albumartist, genre)
  VALUES (new.id, new.title, new.artist, new.album, new.albumartist, new.genre);
END;

CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON items BEGIN
  INSERT INTO items_fts(items_fts, rowid, title, artist, album, albumartist, genre)
  VALUES ('delete', old.id, old.title, old.artist, old.album, old.albumartist, old.genre);
END;

CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE ON items BEGIN
  INSERT INTO items_fts(items_fts, rowid, title, artist, album, albumartist, genre)
  VALUES ('delete', old.id, old.title, old.artist, old.album, old.albumartist, old.genre);
  INSERT INTO items_fts(rowid, title, artist, album, albumartist, genre)
  VALUES (new.id, new.title, new.artist, new.album, new.albumartist, new.genre);
END;
`

// Schema v2 - lookup indexes for structured queries and import dedup
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_items_artist ON items(artist);
CREATE INDEX IF NOT EXISTS idx_items_album ON items(album);
CREATE INDEX IF NOT EXISTS idx_items_year ON items(year);
CREATE INDEX IF NOT EXISTS idx_items_genre ON items(genre);
CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);
CREATE INDEX IF NOT EXISTS idx_items_album_id ON items(album_id);
CREATE INDEX IF NOT EXISTS idx_albums_albumartist ON albums(albumartist);
CREATE INDEX IF NOT EXISTS idx_albums_mb_albumid ON albums(mb_albumid);
`

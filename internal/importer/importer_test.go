package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/music-librarian/internal/musicbrainz"
	"github.com/franz/music-librarian/internal/store"
)

// stubResolver serves canned releases without talking to the network
type stubResolver struct {
	searchResults []musicbrainz.Release
	lookupResult  *musicbrainz.Release
	art           []byte
}

func (s *stubResolver) SearchReleases(ctx context.Context, artist, album string, limit int) ([]musicbrainz.Release, error) {
	return s.searchResults, nil
}

func (s *stubResolver) LookupRelease(ctx context.Context, mbid string) (*musicbrainz.Release, error) {
	return s.lookupResult, nil
}

func (s *stubResolver) FetchCoverArt(ctx context.Context, mbid string) ([]byte, error) {
	return s.art, nil
}

func openTestStore(t *testing.T, name string) *store.Store {
	t.Helper()

	tmpFile := name + ".db"
	t.Cleanup(func() {
		os.Remove(tmpFile)
		os.Remove(tmpFile + "-shm")
		os.Remove(tmpFile + "-wal")
	})

	db, err := store.Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestReconcileCreatesAlbumAndItem(t *testing.T) {
	db := openTestStore(t, "test-reconcile")
	im := New(db, nil, Config{})

	album := &store.Album{
		Album:       "Paranoid",
		AlbumArtist: "Black Sabbath",
		Year:        1970,
		MBAlbumID:   "mbid-paranoid",
		Added:       time.Now().UTC(),
	}
	item := &store.Item{
		Path:   "/music/01.mp3",
		Title:  "War Pigs",
		Artist: "Black Sabbath",
		Album:  "Paranoid",
		Format: "MP3",
		Added:  time.Now().UTC(),
		Mtime:  time.Now().UTC(),
	}

	if err := im.Reconcile(album, item); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	retrieved, err := db.GetItem(item.ID)
	if err != nil {
		t.Fatalf("failed to retrieve item: %v", err)
	}
	if retrieved.AlbumID != album.ID {
		t.Errorf("expected item linked to album %d, got %d", album.ID, retrieved.AlbumID)
	}
	if retrieved.Year != 1970 {
		t.Errorf("expected album year applied to item, got %d", retrieved.Year)
	}
	if retrieved.MBAlbumID != "mbid-paranoid" {
		t.Errorf("expected catalog id on item, got %q", retrieved.MBAlbumID)
	}
}

func TestReconcileSharesAlbumAcrossItems(t *testing.T) {
	db := openTestStore(t, "test-reconcile-share")
	im := New(db, nil, Config{})

	newItem := func(path, title string) *store.Item {
		return &store.Item{
			Path: path, Title: title,
			Artist: "Black Sabbath", Album: "Paranoid",
			Format: "MP3", Added: time.Now().UTC(), Mtime: time.Now().UTC(),
		}
	}

	a := &store.Album{Album: "Paranoid", AlbumArtist: "Black Sabbath", Added: time.Now().UTC()}
	if err := im.Reconcile(a, newItem("/music/01.mp3", "War Pigs")); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	b := &store.Album{Album: "Paranoid", AlbumArtist: "Black Sabbath", Added: time.Now().UTC()}
	if err := im.Reconcile(b, newItem("/music/02.mp3", "Paranoid")); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if a.ID != b.ID {
		t.Errorf("expected both items on album %d, second got %d", a.ID, b.ID)
	}

	albums, err := db.ListAlbums()
	if err != nil {
		t.Fatalf("failed to list albums: %v", err)
	}
	if len(albums) != 1 {
		t.Errorf("expected 1 album, got %d", len(albums))
	}
}

func TestReconcileReimportUpdatesInPlace(t *testing.T) {
	db := openTestStore(t, "test-reconcile-reimport")
	im := New(db, nil, Config{})

	album := &store.Album{Album: "Paranoid", AlbumArtist: "Black Sabbath", Added: time.Now().UTC()}
	item := &store.Item{
		Path: "/music/01.mp3", Title: "Warr Pigs",
		Artist: "Black Sabbath", Album: "Paranoid",
		Format: "MP3", Added: time.Now().UTC(), Mtime: time.Now().UTC(),
	}
	if err := im.Reconcile(album, item); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	firstID := item.ID

	// Second pass with corrected tags updates the same row
	album2 := &store.Album{Album: "Paranoid", AlbumArtist: "Black Sabbath", Added: time.Now().UTC()}
	fixed := &store.Item{
		Path: "/music/01.mp3", Title: "War Pigs",
		Artist: "Black Sabbath", Album: "Paranoid",
		Format: "MP3", Added: time.Now().UTC(), Mtime: time.Now().UTC(),
	}
	if err := im.Reconcile(album2, fixed); err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}

	items, err := db.ListItems()
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after re-import, got %d", len(items))
	}
	if items[0].ID != firstID {
		t.Errorf("expected item id %d preserved, got %d", firstID, items[0].ID)
	}
	if items[0].Title != "War Pigs" {
		t.Errorf("expected corrected title, got %q", items[0].Title)
	}

	// The corrected title is searchable
	found, err := db.SearchItems("war pigs")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("expected re-imported item searchable, got %d results", len(found))
	}
}

func TestImportEndToEnd(t *testing.T) {
	db := openTestStore(t, "test-import-e2e")

	srcDir := t.TempDir()
	libDir := t.TempDir()

	// Files with no readable tag block import under filename-derived titles
	for _, name := range []string{"01 War Pigs.mp3", "02 Paranoid.mp3", "notes.txt"} {
		path := filepath.Join(srcDir, name)
		if err := os.WriteFile(path, []byte("not real audio"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	im := New(db, nil, Config{
		Action:     ActionCopy,
		LibraryDir: libDir,
		PathFormat: "$albumartist/$album/$title",
	})

	result, err := im.Import(context.Background(), srcDir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d (errors: %v)", result.Imported, result.Errors)
	}

	items, err := db.ListItems()
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, item := range items {
		if item.Artist != "Unknown Artist" || item.Album != "Unknown Album" {
			t.Errorf("expected placeholder identity, got %s - %s", item.Artist, item.Album)
		}
		if _, err := os.Stat(item.Path); err != nil {
			t.Errorf("expected library file at %s: %v", item.Path, err)
		}
		if filepath.Dir(item.Path) != filepath.Join(libDir, "Unknown Artist", "Unknown Album") {
			t.Errorf("unexpected library layout: %s", item.Path)
		}
	}

	// Both untagged files share one placeholder album
	albums, err := db.ListAlbums()
	if err != nil {
		t.Fatalf("failed to list albums: %v", err)
	}
	if len(albums) != 1 {
		t.Errorf("expected 1 album, got %d", len(albums))
	}
}

func TestImportWithResolver(t *testing.T) {
	db := openTestStore(t, "test-import-resolved")

	srcDir := t.TempDir()
	libDir := t.TempDir()
	path := filepath.Join(srcDir, "01 War Pigs.mp3")
	if err := os.WriteFile(path, []byte("not real audio"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	release := makeRelease("mbid-paranoid", "Black Sabbath", "Paranoid", "War Pigs")
	release.Date = "1970-09-18"
	release.Media[0].Tracks[0].Recording = musicbrainz.Recording{ID: "rec-war-pigs"}

	resolver := &stubResolver{
		searchResults: []musicbrainz.Release{release},
		lookupResult:  &release,
	}

	im := New(db, resolver, Config{
		Action:     ActionCopy,
		LibraryDir: libDir,
		PathFormat: "$albumartist/$album/$title",
	})

	result, err := im.Import(context.Background(), srcDir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d (errors: %v)", result.Imported, result.Errors)
	}

	items, err := db.ListItems()
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Album != "Paranoid" || item.AlbumArtist != "Black Sabbath" {
		t.Errorf("expected resolved album identity, got %s - %s", item.AlbumArtist, item.Album)
	}
	if item.Title != "War Pigs" {
		t.Errorf("expected canonical track title, got %q", item.Title)
	}
	if item.Year != 1970 {
		t.Errorf("expected release year 1970, got %d", item.Year)
	}
	if item.MBAlbumID != "mbid-paranoid" || item.MBTrackID != "rec-war-pigs" {
		t.Errorf("expected catalog ids, got album %q track %q", item.MBAlbumID, item.MBTrackID)
	}

	album, err := db.GetAlbum(item.AlbumID)
	if err != nil {
		t.Fatalf("failed to retrieve album: %v", err)
	}
	if album.MBAlbumID != "mbid-paranoid" {
		t.Errorf("expected album catalog id, got %q", album.MBAlbumID)
	}
}

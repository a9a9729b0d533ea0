package store

import (
	"errors"
	"testing"

	"github.com/franz/music-librarian/internal/util"
)

// The FTS shadow index is maintained by schema triggers, so every write
// path through the store keeps it consistent with the items table. These
// tests drive writes through the public operations and check the index
// through SearchItems.

func TestFTSInsertIndexes(t *testing.T) {
	store := openTestStore(t, "test-fts-insert")

	item := testItem("/music/01.mp3", "War Pigs", "Black Sabbath", "Paranoid")
	if err := store.InsertItem(item); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	for _, q := range []string{"war pigs", "black sabbath", "paranoid"} {
		found, err := store.SearchItems(q)
		if err != nil {
			t.Fatalf("search %q failed: %v", q, err)
		}
		if len(found) != 1 {
			t.Errorf("expected 1 result for %q, got %d", q, len(found))
			continue
		}
		if found[0].ID != item.ID {
			t.Errorf("expected item %d for %q, got %d", item.ID, q, found[0].ID)
		}
	}

	// Unrelated text matches nothing
	found, err := store.SearchItems("nevermind")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no results for unrelated text, got %d", len(found))
	}
}

func TestFTSDeleteRemovesEntry(t *testing.T) {
	store := openTestStore(t, "test-fts-delete")

	item := testItem("/music/01.mp3", "War Pigs", "Black Sabbath", "Paranoid")
	if err := store.InsertItem(item); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	if err := store.DeleteItem(item.ID); err != nil {
		t.Fatalf("failed to delete item: %v", err)
	}

	found, err := store.SearchItems("war pigs")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no results after delete, got %d", len(found))
	}
}

func TestFTSUpdateReindexes(t *testing.T) {
	store := openTestStore(t, "test-fts-update")

	item := testItem("/music/01.mp3", "Working Title", "Black Sabbath", "Paranoid")
	if err := store.InsertItem(item); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	if err := store.ModifyItem(item.ID, map[string]string{"title": "War Pigs"}); err != nil {
		t.Fatalf("failed to modify item: %v", err)
	}

	// The old title no longer matches
	found, err := store.SearchItems("working")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected old title gone from index, got %d results", len(found))
	}

	// The new title does
	found, err = store.SearchItems("war pigs")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected new title in index, got %d results", len(found))
	}
	if found[0].Title != "War Pigs" {
		t.Errorf("expected hydrated title War Pigs, got %q", found[0].Title)
	}
}

func TestVerifyIndex(t *testing.T) {
	store := openTestStore(t, "test-fts-verify")

	item := testItem("/music/01.mp3", "War Pigs", "Black Sabbath", "Paranoid")
	if err := store.InsertItem(item); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	if err := store.VerifyIndex(); err != nil {
		t.Fatalf("expected consistent index, got %v", err)
	}

	// Inject a phantom index entry behind the store's back
	_, err := store.db.Exec(`
		INSERT INTO items_fts(rowid, title, artist, album, albumartist, genre)
		VALUES (999, 'ghost', 'ghost', 'ghost', '', '')
	`)
	if err != nil {
		t.Fatalf("failed to inject phantom entry: %v", err)
	}

	err = store.VerifyIndex()
	if !errors.Is(err, util.ErrIndexDesync) {
		t.Fatalf("expected ErrIndexDesync, got %v", err)
	}

	// A rebuild restores consistency from the items table
	if err := store.RebuildIndex(); err != nil {
		t.Fatalf("failed to rebuild index: %v", err)
	}
	if err := store.VerifyIndex(); err != nil {
		t.Errorf("expected consistent index after rebuild, got %v", err)
	}

	found, err := store.SearchItems("war pigs")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("expected rebuilt index to serve searches, got %d results", len(found))
	}
}

func TestFTSSearchMultiWordAndField(t *testing.T) {
	store := openTestStore(t, "test-fts-words")

	a := testItem("/music/01.mp3", "Paranoid", "Black Sabbath", "Paranoid")
	a.Genre = "Heavy Metal"
	if err := store.InsertItem(a); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	b := testItem("/music/02.mp3", "Sabbath Bloody Sabbath", "Black Sabbath", "Sabbath Bloody Sabbath")
	if err := store.InsertItem(b); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	// Multiple words are an implicit AND across the indexed fields
	found, err := store.SearchItems("sabbath bloody")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 result for two-word query, got %d", len(found))
	}
	if found[0].ID != b.ID {
		t.Errorf("expected item %d, got %d", b.ID, found[0].ID)
	}

	// Genre is indexed too
	found, err = store.SearchItems("heavy metal")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != a.ID {
		t.Errorf("expected genre search to find item %d, got %d results", a.ID, len(found))
	}
}

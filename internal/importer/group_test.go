package importer

import (
	"testing"

	"github.com/franz/music-librarian/internal/store"
)

func TestFoldKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Black Sabbath", "black sabbath"},
		{"BLACK  SABBATH", "black sabbath"},
		{"Motörhead", "motorhead"},
		{"Björk", "bjork"},
		{"  Sigur Rós ", "sigur ros"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := foldKey(tt.in); got != tt.want {
			t.Errorf("foldKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupIntoAlbums(t *testing.T) {
	items := []*store.Item{
		{Path: "/in/b2.mp3", Artist: "Black Sabbath", Album: "Paranoid", Track: 2},
		{Path: "/in/b1.mp3", Artist: "Black Sabbath", Album: "Paranoid", Track: 1},
		{Path: "/in/n1.mp3", Artist: "Nirvana", Album: "Nevermind", Track: 1},
		{Path: "/in/b3.mp3", Artist: "BLACK SABBATH", Album: "paranoid", Track: 3},
	}

	candidates := groupIntoAlbums(items)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	// First-seen order and display values from the first item
	sabbath := candidates[0]
	if sabbath.Artist != "Black Sabbath" || sabbath.Album != "Paranoid" {
		t.Errorf("unexpected candidate identity %s - %s", sabbath.Artist, sabbath.Album)
	}
	if len(sabbath.Items) != 3 {
		t.Fatalf("expected 3 tracks in candidate, got %d", len(sabbath.Items))
	}

	// Items are ordered by disc then track
	for i, want := range []int{1, 2, 3} {
		if sabbath.Items[i].Track != want {
			t.Errorf("expected track %d at position %d, got %d", want, i, sabbath.Items[i].Track)
		}
	}

	if candidates[1].Album != "Nevermind" {
		t.Errorf("expected Nevermind second, got %s", candidates[1].Album)
	}
}

func TestGroupUsesAlbumArtistOverArtist(t *testing.T) {
	// Tracks by different artists on one compilation stay together when the
	// albumartist tag agrees
	items := []*store.Item{
		{Path: "/in/1.mp3", Artist: "Artist A", AlbumArtist: "Various Artists", Album: "Hits", Track: 1},
		{Path: "/in/2.mp3", Artist: "Artist B", AlbumArtist: "Various Artists", Album: "Hits", Track: 2},
	}

	candidates := groupIntoAlbums(items)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Artist != "Various Artists" {
		t.Errorf("expected albumartist identity, got %s", candidates[0].Artist)
	}
}

func TestGroupMultiDiscOrdering(t *testing.T) {
	items := []*store.Item{
		{Path: "/in/d2t1.mp3", Artist: "A", Album: "X", Disc: 2, Track: 1},
		{Path: "/in/d1t2.mp3", Artist: "A", Album: "X", Disc: 1, Track: 2},
		{Path: "/in/d1t1.mp3", Artist: "A", Album: "X", Disc: 1, Track: 1},
	}

	candidates := groupIntoAlbums(items)
	got := candidates[0].Items
	if got[0].Disc != 1 || got[0].Track != 1 {
		t.Errorf("expected disc 1 track 1 first, got disc %d track %d", got[0].Disc, got[0].Track)
	}
	if got[2].Disc != 2 {
		t.Errorf("expected disc 2 last, got disc %d", got[2].Disc)
	}
}

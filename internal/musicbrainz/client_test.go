package musicbrainz

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestClientRateLimiting(t *testing.T) {
	client := NewClient()

	// 3 waits means at least 2 full intervals
	start := time.Now()
	for i := 0; i < 3; i++ {
		client.waitForRateLimit()
	}
	elapsed := time.Since(start)

	if elapsed < 2*RateLimit {
		t.Errorf("rate limiting not working: 3 requests took only %v", elapsed)
	}
}

func TestSearchReleasesRejectsEmptyQuery(t *testing.T) {
	client := NewClient()

	_, err := client.SearchReleases(context.Background(), "", "", 5)
	if err == nil {
		t.Error("expected error for empty artist and album")
	}
}

func TestReleaseDecoding(t *testing.T) {
	// Trimmed from a real /ws/2/release response
	payload := `{
		"id": "d7d44ec6-6152-3c84-a73b-ab15b0f9e9c2",
		"title": "Paranoid",
		"date": "1970-09-18",
		"artist-credit": [
			{"artist": {"id": "5182c1d9", "name": "Black Sabbath"}, "joinphrase": ""}
		],
		"media": [
			{
				"position": 1,
				"tracks": [
					{
						"id": "t1", "number": "1", "title": "War Pigs / Luke's Wall",
						"length": 478000,
						"recording": {"id": "r1", "title": "War Pigs / Luke's Wall", "length": 478000}
					},
					{
						"id": "t2", "number": "2", "title": "Paranoid",
						"length": 168000,
						"recording": {"id": "r2", "title": "Paranoid"}
					}
				]
			}
		]
	}`

	var release Release
	if err := json.Unmarshal([]byte(payload), &release); err != nil {
		t.Fatalf("failed to decode release: %v", err)
	}

	if release.ID != "d7d44ec6-6152-3c84-a73b-ab15b0f9e9c2" {
		t.Errorf("unexpected release id %q", release.ID)
	}
	if release.Title != "Paranoid" {
		t.Errorf("unexpected title %q", release.Title)
	}
	if got := release.ArtistName(); got != "Black Sabbath" {
		t.Errorf("expected artist Black Sabbath, got %q", got)
	}
	if got := release.Year(); got != 1970 {
		t.Errorf("expected year 1970, got %d", got)
	}

	tracks := release.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Title != "War Pigs / Luke's Wall" || tracks[0].LengthMs != 478000 {
		t.Errorf("unexpected first track %+v", tracks[0])
	}
	if tracks[1].Recording.ID != "r2" {
		t.Errorf("expected recording id r2, got %q", tracks[1].Recording.ID)
	}
}

func TestArtistNameJoinsCredits(t *testing.T) {
	release := Release{
		ArtistCredit: []ArtistCredit{
			{Artist: Artist{Name: "David Bowie"}, JoinPhrase: " & "},
			{Artist: Artist{Name: "Queen"}},
		},
	}

	if got := release.ArtistName(); got != "David Bowie & Queen" {
		t.Errorf("expected joined credit, got %q", got)
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"1970-09-18", 1970},
		{"1970-09", 1970},
		{"1970", 1970},
		{"", 0},
		{"unknown", 0},
	}

	for _, tt := range tests {
		r := Release{Date: tt.date}
		if got := r.Year(); got != tt.want {
			t.Errorf("Year(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestTracksFlattenMedia(t *testing.T) {
	release := Release{
		Media: []Medium{
			{Position: 1, Tracks: []Track{{Title: "a"}, {Title: "b"}}},
			{Position: 2, Tracks: []Track{{Title: "c"}}},
		},
	}

	tracks := release.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks across media, got %d", len(tracks))
	}
	if tracks[2].Title != "c" {
		t.Errorf("expected disc 2 track last, got %q", tracks[2].Title)
	}
}

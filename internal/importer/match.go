package importer

import (
	"sort"
	"strings"

	"github.com/franz/music-librarian/internal/musicbrainz"
	"github.com/franz/music-librarian/internal/store"
)

// Track length comparison thresholds
const (
	lengthPerfectMs = 3000.0
	lengthGoodMs    = 10000.0

	lengthPerfectScore = 1.0
	lengthGoodScore    = 0.7
	lengthPoorScore    = 0.3
	lengthUnknownScore = 0.5

	// Bonus when a release's track count matches the candidate's
	trackCountBonus = 0.2
)

// pickBestMatch selects the release that best matches an album candidate
// by artist and title similarity plus a track-count bonus. Returns nil
// only for an empty release list.
func pickBestMatch(candidate albumCandidate, releases []musicbrainz.Release) *musicbrainz.Release {
	var best *musicbrainz.Release
	bestScore := -1.0

	for i := range releases {
		r := &releases[i]
		score := similarity(candidate.Artist, r.ArtistName()) + similarity(candidate.Album, r.Title)
		if len(r.Tracks()) == len(candidate.Items) {
			score += trackCountBonus
		}
		if score > bestScore {
			bestScore = score
			best = r
		}
	}

	return best
}

// matchTracks assigns release tracks to scanned items and applies the
// canonical track titles and recording ids. Assignment is greedy on the
// combined title-similarity and length-proximity score; each track is
// used at most once.
func (im *Importer) matchTracks(items []*store.Item, release *musicbrainz.Release) {
	tracks := release.Tracks()
	if len(tracks) == 0 {
		return
	}

	type pair struct {
		item  int
		track int
		score float64
	}

	var pairs []pair
	for i, item := range items {
		for j, track := range tracks {
			pairs = append(pairs, pair{i, j, trackScore(item, track)})
		}
	}

	// Best pairs first; stable within equal scores by construction order
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].score > pairs[b].score })

	itemDone := make(map[int]bool)
	trackDone := make(map[int]bool)
	for _, p := range pairs {
		if itemDone[p.item] || trackDone[p.track] {
			continue
		}
		itemDone[p.item] = true
		trackDone[p.track] = true

		track := tracks[p.track]
		items[p.item].Title = track.Title
		items[p.item].MBTrackID = track.Recording.ID
	}
}

// trackScore combines title similarity with length proximity
func trackScore(item *store.Item, track musicbrainz.Track) float64 {
	score := similarity(item.Title, track.Title)

	length := track.LengthMs
	if length == 0 {
		length = track.Recording.LengthMs
	}

	if length == 0 {
		return score + lengthUnknownScore
	}

	diff := item.Length*1000 - float64(length)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < lengthPerfectMs:
		score += lengthPerfectScore
	case diff < lengthGoodMs:
		score += lengthGoodScore
	default:
		score += lengthPoorScore
	}

	return score
}

// similarity scores two strings in [0,1] as the Dice coefficient over
// their folded token sets
func similarity(a, b string) float64 {
	fa, fb := foldKey(a), foldKey(b)
	if fa == fb {
		return 1
	}

	tokensA := strings.Fields(fa)
	tokensB := strings.Fields(fb)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]int)
	for _, t := range tokensA {
		setA[t]++
	}

	common := 0
	for _, t := range tokensB {
		if setA[t] > 0 {
			setA[t]--
			common++
		}
	}

	return 2 * float64(common) / float64(len(tokensA)+len(tokensB))
}

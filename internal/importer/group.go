package importer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/franz/music-librarian/internal/store"
	"golang.org/x/text/unicode/norm"
)

// albumCandidate is a group of scanned items believed to belong to one
// release
type albumCandidate struct {
	Artist string
	Album  string
	Items  []*store.Item
}

// groupIntoAlbums groups scanned items into album candidates keyed by the
// folded (effective albumartist, album) pair. The display artist and album
// come from the first item of each group.
func groupIntoAlbums(items []*store.Item) []albumCandidate {
	groups := make(map[string]*albumCandidate)
	var order []string

	for _, item := range items {
		key := foldKey(item.EffectiveAlbumArtist()) + "\x00" + foldKey(item.Album)
		group, ok := groups[key]
		if !ok {
			group = &albumCandidate{
				Artist: item.EffectiveAlbumArtist(),
				Album:  item.Album,
			}
			groups[key] = group
			order = append(order, key)
		}
		group.Items = append(group.Items, item)
	}

	candidates := make([]albumCandidate, 0, len(groups))
	for _, key := range order {
		group := groups[key]
		sort.Slice(group.Items, func(i, j int) bool {
			if group.Items[i].Disc != group.Items[j].Disc {
				return group.Items[i].Disc < group.Items[j].Disc
			}
			return group.Items[i].Track < group.Items[j].Track
		})
		candidates = append(candidates, *group)
	}

	return candidates
}

// foldKey normalizes a string for identity comparison: unicode
// decomposition, diacritics stripped, lowercased, whitespace collapsed
func foldKey(s string) string {
	decomposed := norm.NFKD.String(s)

	var sb strings.Builder
	sb.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

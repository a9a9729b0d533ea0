// Package importer merges locally-read tag data with externally resolved
// MusicBrainz metadata into committed album and item records.
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/music-librarian/internal/musicbrainz"
	"github.com/franz/music-librarian/internal/report"
	"github.com/franz/music-librarian/internal/store"
	"github.com/franz/music-librarian/internal/util"
)

// Action is how source files are placed into the library tree
type Action string

const (
	ActionCopy Action = "copy"
	ActionMove Action = "move"
	ActionLink Action = "link"
)

// Resolver is the metadata-resolver collaborator. The importer consumes at
// most one resolved release per album candidate; picking that one release
// from the search results happens here, not in the reconciler.
type Resolver interface {
	SearchReleases(ctx context.Context, artist, album string, limit int) ([]musicbrainz.Release, error)
	LookupRelease(ctx context.Context, mbid string) (*musicbrainz.Release, error)
	FetchCoverArt(ctx context.Context, mbid string) ([]byte, error)
}

// Config holds importer configuration
type Config struct {
	Action      Action
	FetchArt    bool
	PathFormat  string
	LibraryDir  string
	SearchLimit int
	Concurrency int
	Logger      *report.EventLogger
}

// Importer drives the import pipeline for one or more source paths
type Importer struct {
	db       *store.Store
	resolver Resolver
	cfg      Config
	logger   *report.EventLogger
}

// New creates an importer. A nil resolver disables external resolution;
// imports then proceed with local tag data only.
func New(db *store.Store, resolver Resolver, cfg Config) *Importer {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.PathFormat == "" {
		cfg.PathFormat = "$albumartist/$album/$track - $title"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = report.NullLogger()
	}

	return &Importer{
		db:       db,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Result aggregates the outcome of an import run
type Result struct {
	Imported int
	Skipped  int
	Errors   []error
}

// Import scans a path for audio files, groups them into album candidates,
// and reconciles each candidate into the library. A failure on one file is
// reported and does not abort the rest of the batch.
func (im *Importer) Import(ctx context.Context, path string) (*Result, error) {
	items, err := im.Scan(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		util.InfoLog("No audio files found in %s", path)
		return &Result{}, nil
	}

	result := &Result{}
	for _, candidate := range groupIntoAlbums(items) {
		im.processCandidate(ctx, candidate, result)
	}

	return result, nil
}

// processCandidate imports one album candidate: resolve it against the
// catalog, then reconcile each of its items.
func (im *Importer) processCandidate(ctx context.Context, candidate albumCandidate, result *Result) {
	util.InfoLog("Importing: %s - %s (%d tracks)", candidate.Artist, candidate.Album, len(candidate.Items))

	release := im.lookupRelease(ctx, candidate)
	album := buildAlbum(candidate, release)

	if release != nil {
		im.matchTracks(candidate.Items, release)
		im.fetchArt(ctx, album, release)
	}

	for _, item := range candidate.Items {
		if err := im.importItem(album, item); err != nil {
			util.ErrorLog("Failed to import %s: %v", item.Path, err)
			im.logger.LogError(report.EventImport, item.Path, err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", item.Path, err))
			continue
		}
		im.logger.LogImport(item.Path, item.Artist, item.Album, item.Title)
		result.Imported++
	}
}

// lookupRelease searches the catalog and returns the single best release
// candidate, fully hydrated, or nil when resolution fails or finds nothing.
// Import never blocks on resolver availability.
func (im *Importer) lookupRelease(ctx context.Context, candidate albumCandidate) *musicbrainz.Release {
	if im.resolver == nil {
		return nil
	}

	releases, err := im.resolver.SearchReleases(ctx, candidate.Artist, candidate.Album, im.cfg.SearchLimit)
	if err != nil {
		util.WarnLog("MusicBrainz search failed, importing as-is: %v", err)
		return nil
	}
	if len(releases) == 0 {
		util.InfoLog("  No MusicBrainz matches found, importing as-is")
		return nil
	}

	best := pickBestMatch(candidate, releases)
	if best == nil {
		return nil
	}

	release, err := im.resolver.LookupRelease(ctx, best.ID)
	if err != nil {
		util.WarnLog("MusicBrainz lookup failed, importing as-is: %v", err)
		return nil
	}

	year := "????"
	if y := release.Year(); y != 0 {
		year = fmt.Sprintf("%d", y)
	}
	util.InfoLog("  Matched: %s - %s (%s)", release.ArtistName(), release.Title, year)
	im.logger.LogResolve(candidate.Artist, candidate.Album, release.ID)

	return release
}

// buildAlbum creates the album record for a candidate. Catalog values win
// for the canonical fields when resolution succeeded; otherwise the local
// tag values stand and the catalog id stays empty.
func buildAlbum(candidate albumCandidate, release *musicbrainz.Release) *store.Album {
	album := &store.Album{
		Album:       candidate.Album,
		AlbumArtist: candidate.Artist,
		Added:       time.Now().UTC(),
	}

	if release != nil {
		album.Album = release.Title
		album.AlbumArtist = release.ArtistName()
		album.Year = release.Year()
		album.MBAlbumID = release.ID
	}

	return album
}

// fetchArt downloads cover art for a resolved release into the album's
// library directory and records the path on the album
func (im *Importer) fetchArt(ctx context.Context, album *store.Album, release *musicbrainz.Release) {
	if !im.cfg.FetchArt {
		return
	}

	art, err := im.resolver.FetchCoverArt(ctx, release.ID)
	if err != nil {
		util.WarnLog("Cover art fetch failed: %v", err)
		return
	}
	if art == nil {
		return
	}

	artPath := filepath.Join(im.cfg.LibraryDir,
		sanitizeComponent(album.AlbumArtist), sanitizeComponent(album.Album), "cover.jpg")
	if err := os.MkdirAll(filepath.Dir(artPath), 0755); err != nil {
		util.WarnLog("Failed to create art directory: %v", err)
		return
	}
	if err := os.WriteFile(artPath, art, 0644); err != nil {
		util.WarnLog("Failed to save cover art: %v", err)
		return
	}

	album.ArtPath = artPath
	im.logger.Log(report.Event{Level: report.LevelInfo, Event: report.EventArt, Path: artPath, MBID: release.ID})
	util.InfoLog("  Downloaded cover art")
}

// importItem places one file into the library tree and commits its album
// and item records as one atomic unit
func (im *Importer) importItem(album *store.Album, item *store.Item) error {
	// The canonical album identity shapes the destination path
	item.Album = album.Album
	item.AlbumArtist = album.AlbumArtist

	// A file already inside the library keeps its path; anything else is
	// transferred to its formatted destination first.
	existing, err := im.db.GetItemByPath(item.Path)
	if err != nil {
		return err
	}
	if existing == nil {
		dest := im.destinationPath(item)
		if dest != item.Path {
			if err := transferFile(im.cfg.Action, item.Path, dest); err != nil {
				return err
			}
			item.Path = dest
		}
	}

	return im.Reconcile(album, item)
}

// Reconcile commits an album and one of its items as a single transaction.
// The album identity is resolved through the two-tier lookup; the item is
// upserted by path so re-imports update in place. A failure on either side
// rolls back both, and the triggered FTS maintenance commits with them.
func (im *Importer) Reconcile(album *store.Album, item *store.Item) error {
	return im.db.Transaction(func(tx *sql.Tx) error {
		albumID, err := im.db.ResolveAlbum(tx, album)
		if err != nil {
			return err
		}

		item.AlbumID = albumID
		item.Album = album.Album
		item.AlbumArtist = album.AlbumArtist
		item.MBAlbumID = album.MBAlbumID
		if album.Year != 0 {
			item.Year = album.Year
		}

		_, err = im.db.UpsertItem(tx, item)
		return err
	})
}

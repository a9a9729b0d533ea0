// Package musicbrainz is the metadata-resolver boundary: a rate-limited
// client for the MusicBrainz web service and the Cover Art Archive.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/franz/music-librarian/internal/util"
)

const (
	// BaseURL is the MusicBrainz API base URL
	BaseURL = "https://musicbrainz.org/ws/2"

	// CoverArtURL is the Cover Art Archive base URL
	CoverArtURL = "https://coverartarchive.org"

	// UserAgent identifies this application to MusicBrainz, which requires
	// a proper user agent
	UserAgent = "mlib/0.2.0 (https://github.com/franz/music-librarian)"

	// RateLimit is the minimum interval between requests (MusicBrainz
	// requirement)
	RateLimit = 1 * time.Second
)

// Client handles MusicBrainz API requests with rate limiting
type Client struct {
	httpClient  *http.Client
	userAgent   string
	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new MusicBrainz API client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: UserAgent,
	}
}

// waitForRateLimit blocks until a request may be sent
func (c *Client) waitForRateLimit() {
	c.mu.Lock()
	wait := RateLimit - time.Since(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

// ReleaseSearchResult is the response of a release search
type ReleaseSearchResult struct {
	Releases []Release `json:"releases"`
	Count    int       `json:"count"`
}

// Release represents a MusicBrainz release
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Media        []Medium       `json:"media"`
	Score        int            `json:"score"`
}

// ArtistCredit is one artist in a release's credit list
type ArtistCredit struct {
	Artist     Artist `json:"artist"`
	JoinPhrase string `json:"joinphrase"`
}

// Artist represents an artist from MusicBrainz
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Medium is one disc of a release
type Medium struct {
	Position int     `json:"position"`
	Tracks   []Track `json:"tracks"`
}

// Track is one track of a release medium
type Track struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Title     string    `json:"title"`
	LengthMs  int64     `json:"length"`
	Recording Recording `json:"recording"`
}

// Recording is the recording a release track refers to
type Recording struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	LengthMs int64  `json:"length"`
}

// ArtistName joins the release's artist credits into a display name
func (r *Release) ArtistName() string {
	var sb strings.Builder
	for _, ac := range r.ArtistCredit {
		sb.WriteString(ac.Artist.Name)
		sb.WriteString(ac.JoinPhrase)
	}
	return sb.String()
}

// Year extracts the release year from the date field, 0 if unknown
func (r *Release) Year() int {
	if r.Date == "" {
		return 0
	}
	yearPart, _, _ := strings.Cut(r.Date, "-")
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0
	}
	return year
}

// Tracks flattens the release's media into a single track list
func (r *Release) Tracks() []Track {
	var tracks []Track
	for _, m := range r.Media {
		tracks = append(tracks, m.Tracks...)
	}
	return tracks
}

// SearchReleases searches for releases matching an artist and album title
func (c *Client) SearchReleases(ctx context.Context, artist, album string, limit int) ([]Release, error) {
	if artist == "" && album == "" {
		return nil, fmt.Errorf("artist and album cannot both be empty")
	}

	query := fmt.Sprintf("artist:%s AND release:%s", artist, album)
	urlStr := fmt.Sprintf("%s/release?query=%s&limit=%d&fmt=json", BaseURL, url.QueryEscape(query), limit)

	util.DebugLog("MusicBrainz API: searching releases for '%s - %s'", artist, album)

	var result ReleaseSearchResult
	if err := c.getJSON(ctx, urlStr, &result); err != nil {
		return nil, err
	}

	return result.Releases, nil
}

// LookupRelease fetches a release with its recordings and artist credits
func (c *Client) LookupRelease(ctx context.Context, mbid string) (*Release, error) {
	urlStr := fmt.Sprintf("%s/release/%s?inc=recordings+artist-credits&fmt=json", BaseURL, mbid)

	util.DebugLog("MusicBrainz API: looking up release %s", mbid)

	release := &Release{}
	if err := c.getJSON(ctx, urlStr, release); err != nil {
		return nil, err
	}

	return release, nil
}

// FetchCoverArt downloads the front cover image for a release.
// Returns nil without error when the archive has no image.
func (c *Client) FetchCoverArt(ctx context.Context, mbid string) ([]byte, error) {
	c.waitForRateLimit()

	urlStr := fmt.Sprintf("%s/release/%s/front", CoverArtURL, mbid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover art error: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, urlStr string, out interface{}) error {
	c.waitForRateLimit()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("MusicBrainz service unavailable (503) - rate limit exceeded or maintenance")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

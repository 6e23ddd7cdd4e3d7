// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// DefaultPageSize matches the page the UI asks for when browsing.
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int64           `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	IsPlayable *bool           `json:"is_playable,omitempty"`
	Type       string          `json:"type"` // track or episode
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a playlist object. Tracks holds only the total; items are paged via [SpotifyClient.PlaylistItems].
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Public      bool           `json:"public"`
	SnapshotID  string         `json:"snapshot_id"`
	Tracks      trackRef       `json:"tracks"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is nil for items that were removed from the catalogue.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

// Page is the Web API paging envelope.
type Page[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool { return p.Next != nil && *p.Next != "" }

type (
	SpotifyPaginatedPlaylists      = Page[SpotifyPlaylist]
	SpotifyPaginatedPlaylistTracks = Page[SpotifyPlaylistTrack]
)

// ClientOpts configures a [SpotifyClient].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64 // requests per second, 0 disables throttling
	Burst      int
	Logger     *log.Logger
}

// SpotifyClient is the REST client. It holds the current [models.BearerToken] and never refreshes it itself:
// an expired token is reported as [shared.ErrTokenExpired] so the caller can derive a new one.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      atomic.Pointer[models.BearerToken]
	now        func() time.Time
	logger     *log.Logger
}

// NewSpotifyClient creates a REST client with no token installed.
func NewSpotifyClient(opts ClientOpts) *SpotifyClient {
	c := &SpotifyClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		now:        time.Now,
		logger:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = spotifyBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	if opts.RateLimit > 0 {
		burst := max(opts.Burst, 1)
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// SetToken atomically replaces the bearer token used by subsequent requests.
func (c *SpotifyClient) SetToken(t models.BearerToken) {
	c.token.Store(&t)
}

// ClearToken removes the installed token.
func (c *SpotifyClient) ClearToken() {
	c.token.Store(nil)
}

// Token returns a copy of the installed token.
func (c *SpotifyClient) Token() (models.BearerToken, bool) {
	t := c.token.Load()
	if t == nil {
		return models.BearerToken{}, false
	}
	return *t, true
}

// doRequest performs an authenticated GET against the Web API and decodes the JSON body into result.
func (c *SpotifyClient) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	tok := c.token.Load()
	if tok == nil {
		return fmt.Errorf("%w: no bearer token installed", shared.ErrTokenExpired)
	}
	if tok.Expired(c.now()) {
		return fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, tok.Expiry.Format(time.RFC3339))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CurrentUser retrieves the profile of the token's owner.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (c *SpotifyClient) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	var page SpotifyPaginatedPlaylists
	if err := c.doRequest(ctx, "/me/playlists", pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves playlist metadata by ID.
func (c *SpotifyClient) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	q := url.Values{}
	q.Set("fields", "id,name,description,owner(id,display_name),public,snapshot_id,tracks(total),images,uri")

	var playlist SpotifyPlaylist
	if err := c.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID), q, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistItems retrieves one page of a playlist's tracks.
func (c *SpotifyClient) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistTracks, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	q := pageQuery(limit, offset)
	q.Set("additional_types", "track")

	var page SpotifyPaginatedPlaylistTracks
	if err := c.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Track retrieves a single track by ID.
func (c *SpotifyClient) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var track SpotifyTrack
	if err := c.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

func pageQuery(limit, offset int) url.Values {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	offset = max(offset, 0)

	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	return q
}

// ToPlaylist projects a Web API playlist onto [models.Playlist].
func ToPlaylist(sp SpotifyPlaylist) models.Playlist {
	owner := sp.Owner.DisplayName
	if owner == "" {
		owner = sp.Owner.ID
	}
	return models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       owner,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
		SnapshotID:  sp.SnapshotID,
	}
}

// ToTrack projects a Web API track onto [models.Track]. The first listed artist is the main artist.
func ToTrack(st SpotifyTrack) models.Track {
	t := models.Track{
		ID:         st.ID,
		URI:        st.URI,
		Title:      st.Name,
		Album:      st.Album.Name,
		DurationMS: st.DurationMS,
	}
	if len(st.Artists) > 0 {
		t.Artist = st.Artists[0].Name
	}
	if len(st.Album.Images) > 0 {
		t.CoverURL = st.Album.Images[0].URL
	}
	return t
}

// ToTracks projects a page of playlist items, skipping removed and local entries.
func ToTracks(items []SpotifyPlaylistTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil || item.IsLocal || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, ToTrack(*item.Track))
	}
	return tracks
}

// readErrorBody extracts the message from a Web API error body.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}

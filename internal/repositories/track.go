package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

const trackColumns = `id, uri, title, artist, album, composer, duration_ms, cover_url, fetched_at`

// TrackRepository caches track metadata.
type TrackRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db, now: time.Now}
}

func validateTrack(t *models.Track) error {
	if t.ID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: track %s has no title", shared.ErrInvalidInput, t.ID)
	}
	return nil
}

// Upsert inserts track or replaces the cached copy, stamping FetchedAt.
func (r *TrackRepository) Upsert(track *models.Track) error {
	return r.upsert(r.db, track)
}

func (r *TrackRepository) upsert(q rowQuerier, track *models.Track) error {
	if err := validateTrack(track); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if track.URI == "" {
		track.URI = "spotify:track:" + track.ID
	}
	track.FetchedAt = r.now().UTC()

	query := `
		INSERT INTO tracks (` + trackColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri = excluded.uri,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			composer = excluded.composer,
			duration_ms = excluded.duration_ms,
			cover_url = excluded.cover_url,
			fetched_at = excluded.fetched_at
	`

	_, err := q.Exec(query,
		track.ID,
		track.URI,
		track.Title,
		track.Artist,
		track.Album,
		track.Composer,
		track.DurationMS,
		track.CoverURL,
		track.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}
	return nil
}

// Get retrieves a cached track. A miss wraps [shared.ErrTrackNotFound].
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	return scanTrack(r.db.QueryRow(query, id))
}

// Delete removes a cached track and its playlist positions.
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return requireAffected(result, shared.ErrTrackNotFound, id)
}

// List retrieves cached tracks, most recently fetched first.
//
// Supported criteria: "artist" (exact match) and "limit" (int).
func (r *TrackRepository) List(criteria map[string]any) ([]models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY fetched_at DESC, title ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// Count returns the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (*models.Track, error) {
	var t models.Track
	err := row.Scan(&t.ID, &t.URI, &t.Title, &t.Artist, &t.Album, &t.Composer, &t.DurationMS, &t.CoverURL, &t.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return &t, nil
}

func collectTracks(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

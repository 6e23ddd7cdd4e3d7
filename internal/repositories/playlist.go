package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

const playlistColumns = `id, name, owner, track_count, snapshot_id, fetched_at`

// PlaylistRepository caches playlists and their track order.
type PlaylistRepository struct {
	db     *sql.DB
	tracks *TrackRepository
	now    func() time.Time
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db, tracks: NewTrackRepository(db), now: time.Now}
}

// Upsert inserts playlist or replaces the cached copy.
func (r *PlaylistRepository) Upsert(playlist *models.Playlist) error {
	if playlist.ID == "" {
		return fmt.Errorf("validation failed: %w: playlist id is required", shared.ErrInvalidInput)
	}
	playlist.FetchedAt = r.now().UTC()

	query := `
		INSERT INTO playlists (` + playlistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner = excluded.owner,
			track_count = excluded.track_count,
			snapshot_id = excluded.snapshot_id,
			fetched_at = excluded.fetched_at
	`

	_, err := r.db.Exec(query,
		playlist.ID,
		playlist.Name,
		playlist.Owner,
		playlist.TrackCount,
		playlist.SnapshotID,
		playlist.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}
	return nil
}

// UpsertAll caches a page of playlists.
func (r *PlaylistRepository) UpsertAll(playlists []models.Playlist) error {
	for i := range playlists {
		if err := r.Upsert(&playlists[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a cached playlist. A miss wraps [shared.ErrPlaylistNotFound].
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	var p models.Playlist
	err := r.db.QueryRow(`SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Owner, &p.TrackCount, &p.SnapshotID, &p.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}

// Delete removes a cached playlist. Its positions cascade; the tracks stay cached.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return requireAffected(result, shared.ErrPlaylistNotFound, id)
}

// List retrieves cached playlists ordered by name.
//
// Supported criteria: "owner".
func (r *PlaylistRepository) List(criteria map[string]any) ([]models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE 1 = 1`
	args := []any{}

	if owner, ok := criteria["owner"].(string); ok && owner != "" {
		query += " AND owner = ?"
		args = append(args, owner)
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Owner, &p.TrackCount, &p.SnapshotID, &p.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// SetTracks caches tracks at positions offset, offset+1, ... of the playlist.
//
// Existing positions in that range are replaced. The playlist row must already exist.
func (r *PlaylistRepository) SetTracks(playlistID string, offset int, tracks []models.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ? AND position >= ? AND position < ?`,
		playlistID, offset, offset+len(tracks))
	if err != nil {
		return fmt.Errorf("failed to clear playlist positions: %w", err)
	}

	for i := range tracks {
		if err := r.tracks.upsert(tx, &tracks[i]); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)`,
			playlistID, tracks[i].ID, offset+i)
		if err != nil {
			return fmt.Errorf("failed to insert playlist track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist tracks: %w", err)
	}
	return nil
}

// Tracks returns the cached tracks of a playlist in position order.
func (r *PlaylistRepository) Tracks(playlistID string) ([]models.Track, error) {
	query := `
		SELECT t.id, t.uri, t.title, t.artist, t.album, t.composer, t.duration_ms, t.cover_url, t.fetched_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`
	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

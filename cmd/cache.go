package main

import (
	"context"

	"github.com/desertthunder/taan/internal/formatter"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheTracks lists cached tracks, most recently fetched first.
func (r *Runner) CacheTracks(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}

	tracks, err := repositories.NewTrackRepository(db).List(criteria)
	if err != nil {
		return err
	}
	r.logger.Debug("listing cached tracks", "count", len(tracks))

	out, err := formatter.Tracks(cmd.String("format"), nil, tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// CachePlaylists lists cached playlists by name.
func (r *Runner) CachePlaylists(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if owner := cmd.String("owner"); owner != "" {
		criteria["owner"] = owner
	}

	playlists, err := repositories.NewPlaylistRepository(db).List(criteria)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		return r.writePlain("No cached playlists. Run 'taan playlists list' first.\n")
	}
	return r.writeBytes(formatter.Playlists(playlists))
}

package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/taan/internal/auth"
	"github.com/desertthunder/taan/internal/formatter"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/desertthunder/taan/internal/services"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints one page of the user's playlists and caches it.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	offset := cmd.Int("offset")

	s, err := r.newStack(nil)
	if err != nil {
		return err
	}
	if err := r.connect(ctx, s); err != nil {
		return err
	}

	r.logger.Debug("listing playlists", "limit", limit, "offset", offset)
	page, err := auth.CallWithRetry(ctx, s.auth, func(ctx context.Context) (*services.SpotifyPaginatedPlaylists, error) {
		return s.client.UserPlaylists(ctx, limit, offset)
	})
	if err != nil {
		return err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, p := range page.Items {
		playlists = append(playlists, services.ToPlaylist(p))
	}
	if repo := r.playlistRepository(); repo != nil {
		if err := repo.UpsertAll(playlists); err != nil {
			r.logger.Warn("failed to cache playlists", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	r.writePlainHeader(fmt.Sprintf("Playlists (%d of %d)", len(playlists), page.Total))
	return r.writeBytes(formatter.Playlists(playlists))
}

// PlaylistsShow fetches a playlist and up to --limit of its tracks, caches them and prints them in --format.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	limit := cmd.Int("limit")
	format := cmd.String("format")

	s, err := r.newStack(nil)
	if err != nil {
		return err
	}
	if err := r.connect(ctx, s); err != nil {
		return err
	}

	sp, err := auth.CallWithRetry(ctx, s.auth, func(ctx context.Context) (*services.SpotifyPlaylist, error) {
		return s.client.Playlist(ctx, id)
	})
	if err != nil {
		return err
	}
	playlist := services.ToPlaylist(*sp)

	var tracks []models.Track
	for offset := 0; limit <= 0 || len(tracks) < limit; {
		size := services.MaxPageSize
		if limit > 0 {
			size = min(size, limit-len(tracks))
		}
		page, err := auth.CallWithRetry(ctx, s.auth, func(ctx context.Context) (*services.SpotifyPaginatedPlaylistTracks, error) {
			return s.client.PlaylistItems(ctx, id, size, offset)
		})
		if err != nil {
			return err
		}
		tracks = append(tracks, services.ToTracks(page.Items)...)
		offset += len(page.Items)
		if !page.HasNext() || len(page.Items) == 0 {
			break
		}
	}
	r.logger.Debug("fetched playlist", "id", id, "tracks", len(tracks))

	if repo := r.playlistRepository(); repo != nil {
		if err := repo.Upsert(&playlist); err != nil {
			r.logger.Warn("failed to cache playlist", "error", err)
		} else if err := repo.SetTracks(playlist.ID, 0, tracks); err != nil {
			r.logger.Warn("failed to cache playlist tracks", "error", err)
		}
	}

	out, err := formatter.Tracks(format, &playlist, tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// playlistRepository returns nil when the cache cannot be opened; browsing works without it.
func (r *Runner) playlistRepository() *repositories.PlaylistRepository {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("cache unavailable", "error", err)
		return nil
	}
	return repositories.NewPlaylistRepository(db)
}

package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/desertthunder/taan/internal/formatter"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/playback"
	"github.com/desertthunder/taan/internal/player"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/urfave/cli/v3"
)

// Play loads a track on the daemon and starts it. With --follow it keeps running the playback
// coordinator and prints a line whenever the track or play state changes.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	trackID := player.TrackID(cmd.String("track"))

	engine, err := r.dialEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Load(ctx, trackID); err != nil {
		return err
	}
	if err := engine.Play(ctx); err != nil {
		return err
	}
	r.logger.Info("playing", "track", trackID)

	if !cmd.Bool("follow") {
		return r.writePlain("▶ %s\n", player.TrackURI(trackID))
	}

	opts := playback.Opts{
		Engine:    engine,
		Publisher: &linePublisher{w: r.output},
		Covers:    playback.NewHTTPCoverFetcher(r.config.Cache.CoverSize, 10*time.Second, r.logger),
		Logger:    r.logger,
	}
	if meta := r.metadataSource(ctx); meta != nil {
		opts.Metadata = meta
	}

	err = playback.NewCoordinator(opts).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// metadataSource backs the coordinator's fallback lookups with the cache and, when stored
// credentials work, the REST client. It returns nil when neither is available.
func (r *Runner) metadataSource(ctx context.Context) *repositories.TrackCache {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("cache unavailable", "error", err)
		return nil
	}

	var fetch repositories.TrackFetcher
	if s, err := r.newStack(nil); err != nil {
		r.logger.Debug("metadata lookups limited to the cache", "error", err)
	} else if err := r.connect(ctx, s); err != nil {
		r.logger.Debug("metadata lookups limited to the cache", "error", err)
	} else {
		fetch = s.fetchTrack
	}
	return repositories.NewTrackCache(repositories.NewTrackRepository(db), fetch)
}

// linePublisher prints [formatter.NowPlaying] when the track or play state changes.
// Position-only updates are dropped.
type linePublisher struct {
	w io.Writer

	mu   sync.Mutex
	last models.PlaybackState
	seen bool
}

func (p *linePublisher) PublishPlayback(s models.PlaybackState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen && s.TrackID == p.last.TrackID && s.IsPlaying == p.last.IsPlaying && s.Title == p.last.Title {
		return
	}
	p.last, p.seen = s, true
	io.WriteString(p.w, formatter.NowPlaying(s)+"\n")
}

func (p *linePublisher) PublishCover(trackID string, art *models.CoverArt) {
	if art == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if trackID != p.last.TrackID {
		return
	}
	io.WriteString(p.w, "  cover "+art.Accent+"\n")
}

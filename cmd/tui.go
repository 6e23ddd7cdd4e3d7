package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/playback"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/desertthunder/taan/internal/tasks"
	"github.com/desertthunder/taan/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive player.
//
// Without a reachable daemon the TUI still logs in and browses; playback commands report the engine as unavailable.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bridge *tasks.Bridge
	s, err := r.newStack(func(st models.AuthState) { bridge.PublishAuth(st) })
	if err != nil {
		return err
	}

	opts := tasks.BridgeOpts{
		API:      s.client,
		Snapshot: s.session.Snapshot,
		Logger:   r.logger,
	}
	var trackCache *repositories.TrackCache
	if db, err := r.database(); err != nil {
		r.logger.Warn("cache unavailable", "error", err)
	} else {
		opts.Playlists = repositories.NewPlaylistRepository(db)
		opts.Sessions = repositories.NewSessionRepository(db)
		trackCache = repositories.NewTrackCache(repositories.NewTrackRepository(db), s.fetchTrack)
	}

	engine, err := r.dialEngine(ctx)
	if err != nil {
		r.logger.Warn("playback disabled", "error", err)
	} else {
		defer engine.Close()
		opts.Engine = engine
	}

	bridge = tasks.NewBridge(opts)

	var coordinator *playback.Coordinator
	if engine != nil {
		popts := playback.Opts{
			Engine:    engine,
			Publisher: bridge,
			Covers:    playback.NewHTTPCoverFetcher(r.config.Cache.CoverSize, 10*time.Second, r.logger),
			Logger:    r.logger,
		}
		if trackCache != nil {
			popts.Metadata = trackCache
		}
		coordinator = playback.NewCoordinator(popts)
	}
	bridge.Attach(s.auth, coordinator)

	commands := make(chan tasks.Command, 16)
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx, commands) }()

	p := tea.NewProgram(ui.NewModel(ctx, commands, bridge.Updates()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	interrupted := ctx.Err() != nil

	cancel()
	if err := <-done; err != nil {
		r.logger.Warn("bridge stopped", "error", err)
	}
	if runErr != nil && !interrupted {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

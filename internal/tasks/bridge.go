package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/auth"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/playback"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/desertthunder/taan/internal/services"
	"github.com/desertthunder/taan/internal/shared"
)

const (
	updateBuffer = 128
	// updateWait bounds how long a non-playback update waits for room in a full buffer.
	updateWait = 2 * time.Second
)

// API is the part of the REST client the bridge pages through.
type API interface {
	UserPlaylists(ctx context.Context, limit, offset int) (*services.SpotifyPaginatedPlaylists, error)
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*services.SpotifyPaginatedPlaylistTracks, error)
}

// PlaylistCache stores fetched pages. Implemented by repositories.PlaylistRepository.
type PlaylistCache interface {
	UpsertAll(playlists []models.Playlist) error
	Get(id string) (*models.Playlist, error)
	SetTracks(playlistID string, offset int, tracks []models.Track) error
}

// SessionLog records session bring-ups. Implemented by repositories.SessionRepository.
type SessionLog interface {
	Record(s models.Session, source string) (*repositories.SessionRecord, error)
}

// BridgeOpts configures a [Bridge]. Everything but API is optional.
type BridgeOpts struct {
	API       API
	Engine    playback.Engine
	Playlists PlaylistCache
	Sessions  SessionLog
	Snapshot  func() models.Session // current session, for the session log
	PageSize  int
	Logger    *log.Logger
}

// Bridge runs commands from a UI against the coordinators and streams [Update] values back.
//
// It implements [playback.Publisher]; pass [Bridge.PublishAuth] as the auth coordinator's OnState.
type Bridge struct {
	api       API
	engine    playback.Engine
	playlists PlaylistCache
	sessions  SessionLog
	snapshot  func() models.Session
	pageSize  int
	logger    *log.Logger

	auth   *auth.Coordinator
	player *playback.Coordinator

	updates chan Update
	wait    time.Duration
	wg      sync.WaitGroup
}

// NewBridge creates a Bridge. Call [Bridge.Attach] before [Bridge.Run].
func NewBridge(opts BridgeOpts) *Bridge {
	b := &Bridge{
		api:       opts.API,
		engine:    opts.Engine,
		playlists: opts.Playlists,
		sessions:  opts.Sessions,
		snapshot:  opts.Snapshot,
		pageSize:  opts.PageSize,
		logger:    opts.Logger,
		updates:   make(chan Update, updateBuffer),
		wait:      updateWait,
	}
	if b.pageSize <= 0 {
		b.pageSize = services.DefaultPageSize
	}
	if b.logger == nil {
		b.logger = shared.NewLogger(nil)
	}
	b.logger = shared.WithLogger(b.logger, "component", "bridge")
	return b
}

// Attach binds the coordinators. player may be nil when no engine is available.
func (b *Bridge) Attach(a *auth.Coordinator, player *playback.Coordinator) {
	b.auth = a
	b.player = player
}

// Updates returns the outbound channel. It is never closed.
func (b *Bridge) Updates() <-chan Update { return b.updates }

// send delivers u to the UI. Playback snapshots are dropped when the buffer is full; every other kind
// waits up to b.wait for room.
func (b *Bridge) send(u Update) {
	select {
	case b.updates <- u:
		return
	default:
	}
	if u.Kind == PlaybackUpdate {
		b.logger.Debug("playback update dropped, UI not keeping up")
		return
	}

	timer := time.NewTimer(b.wait)
	defer timer.Stop()
	select {
	case b.updates <- u:
	case <-timer.C:
		b.logger.Warn("update dropped, UI not keeping up", "kind", u.Kind)
	}
}

func (b *Bridge) PublishAuth(s models.AuthState) {
	b.send(authUpdate(s))
}

func (b *Bridge) PublishPlayback(s models.PlaybackState) { b.send(playbackUpdate(s)) }

func (b *Bridge) PublishCover(trackID string, art *models.CoverArt) {
	b.send(coverUpdate(trackID, art))
}

func (b *Bridge) fail(op string, err error) {
	b.logger.Error("command failed", "op", op, "error", err)
	b.send(errorUpdate(fmt.Sprintf("%s: %v", op, err)))
}

// Run performs bring-up, starts the player loop and dispatches commands until commands closes or ctx is done.
func (b *Bridge) Run(ctx context.Context, commands <-chan Command) error {
	if b.auth == nil {
		return fmt.Errorf("%w: bridge has no auth coordinator", shared.ErrMissingArgument)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer b.wg.Wait()
	defer cancel()

	b.goTask(func() { b.bringUp(ctx) })
	if b.player != nil {
		b.goTask(func() {
			if err := b.player.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				b.logger.Warn("player loop stopped", "error", err)
			}
		})
	}

	var logins atomic.Bool
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			b.logger.Debug("command", "kind", cmd.Kind)
			b.dispatch(ctx, cmd, &logins)
		}
	}
}

func (b *Bridge) goTask(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

func (b *Bridge) bringUp(ctx context.Context) {
	err := b.auth.InitFromCache(ctx)
	switch {
	case err == nil:
		b.recordSession("cache")
	case shared.KindOf(err) == shared.KindUnauthenticated:
		b.logger.Info("no usable cached session, waiting for login", "error", err)
	default:
		b.fail("startup", err)
	}
}

func (b *Bridge) recordSession(source string) {
	if b.sessions == nil || b.snapshot == nil {
		return
	}
	if _, err := b.sessions.Record(b.snapshot(), source); err != nil {
		b.logger.Warn("failed to record session", "error", err)
	}
}

func (b *Bridge) dispatch(ctx context.Context, cmd Command, logins *atomic.Bool) {
	switch cmd.Kind {
	case Login:
		if !logins.CompareAndSwap(false, true) {
			b.logger.Info("login already in progress")
			return
		}
		b.goTask(func() {
			defer logins.Store(false)
			b.login(ctx)
		})
	case Logout:
		if err := b.auth.Logout(ctx); err != nil {
			b.fail("logout", err)
		}
	case Play:
		b.engineCommand(ctx, "play", b.enginePlay)
	case Pause:
		b.engineCommand(ctx, "pause", func(ctx context.Context) error { return b.engine.Pause(ctx) })
	case Seek:
		b.engineCommand(ctx, "seek", func(ctx context.Context) error { return b.engine.Seek(ctx, cmd.PositionMS) })
	case PlayTrack:
		if cmd.ID == "" {
			b.fail("play track", shared.ErrMissingArgument)
			return
		}
		b.engineCommand(ctx, "play track", func(ctx context.Context) error {
			if err := b.engine.Load(ctx, cmd.ID); err != nil {
				return err
			}
			return b.enginePlay(ctx)
		})
	case FetchPlaylists:
		b.goTask(func() { b.fetchPlaylists(ctx, cmd.Limit, cmd.Offset) })
	case FetchPlaylist:
		if cmd.ID == "" {
			b.fail("fetch playlist", shared.ErrMissingArgument)
			return
		}
		b.goTask(func() { b.fetchPlaylist(ctx, cmd.ID, cmd.Limit, cmd.Offset) })
	default:
		b.logger.Warn("unknown command", "kind", int(cmd.Kind))
	}
}

func (b *Bridge) enginePlay(ctx context.Context) error { return b.engine.Play(ctx) }

func (b *Bridge) engineCommand(ctx context.Context, op string, fn func(context.Context) error) {
	if b.engine == nil {
		b.fail(op, shared.ErrEngineUnavailable)
		return
	}
	if err := fn(ctx); err != nil {
		b.fail(op, err)
	}
}

func (b *Bridge) login(ctx context.Context) {
	err := b.auth.InteractiveLogin(ctx)
	switch {
	case err == nil:
		b.recordSession("login")
	case ctx.Err() != nil:
		b.logger.Info("login abandoned on shutdown")
	default:
		b.fail("login", err)
	}
}

func (b *Bridge) page(limit int) int {
	if limit <= 0 {
		return b.pageSize
	}
	return limit
}

func (b *Bridge) fetchPlaylists(ctx context.Context, limit, offset int) {
	limit = b.page(limit)
	page, err := auth.CallWithRetry(ctx, b.auth, func(ctx context.Context) (*services.SpotifyPaginatedPlaylists, error) {
		return b.api.UserPlaylists(ctx, limit, offset)
	})
	if err != nil {
		b.fail("fetch playlists", err)
		return
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, sp := range page.Items {
		playlists = append(playlists, services.ToPlaylist(sp))
	}
	if b.playlists != nil {
		if err := b.playlists.UpsertAll(playlists); err != nil {
			b.logger.Warn("failed to cache playlists", "error", err)
		}
	}
	b.send(playlistsUpdate(playlists, offset, page.Total, page.HasNext()))
}

func (b *Bridge) fetchPlaylist(ctx context.Context, id string, limit, offset int) {
	limit = b.page(limit)
	page, err := auth.CallWithRetry(ctx, b.auth, func(ctx context.Context) (*services.SpotifyPaginatedPlaylistTracks, error) {
		return b.api.PlaylistItems(ctx, id, limit, offset)
	})
	if err != nil {
		b.fail("fetch playlist", err)
		return
	}

	tracks := services.ToTracks(page.Items)
	if b.playlists != nil {
		if _, err := b.playlists.Get(id); err == nil {
			if err := b.playlists.SetTracks(id, offset, tracks); err != nil {
				b.logger.Warn("failed to cache playlist tracks", "playlist", id, "error", err)
			}
		}
	}
	b.send(playlistItemsUpdate(id, tracks, offset, page.Total, page.HasNext()))
}

var _ playback.Publisher = (*Bridge)(nil)

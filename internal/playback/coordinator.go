package playback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

// Engine is the audio backend: a command surface plus an ordered event stream that closes on shutdown.
type Engine interface {
	Load(ctx context.Context, trackID string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, positionMS int64) error
	Preload(ctx context.Context, trackID string) error
	Events() <-chan PlayerEvent
}

// Publisher receives state for the UI. Calls come from the coordinator's loop and must not block for long.
type Publisher interface {
	PublishPlayback(state models.PlaybackState)
	PublishCover(trackID string, art *models.CoverArt)
}

// CoverLoader fetches and decodes cover art.
type CoverLoader interface {
	LoadCover(ctx context.Context, url string) (*models.CoverArt, error)
}

// MetadataSource resolves a track ID when the engine reported no metadata.
type MetadataSource interface {
	Lookup(ctx context.Context, trackID string) (models.Track, error)
}

// TrackRecorder is implemented by metadata sources that cache what the engine reports.
type TrackRecorder interface {
	Remember(ctx context.Context, track models.Track) error
}

// Opts configures a [Coordinator]. Only Engine is required.
type Opts struct {
	Engine    Engine
	Publisher Publisher
	Covers    CoverLoader
	Metadata  MetadataSource
	Logger    *log.Logger
}

type asyncResult struct {
	trackID string
	cover   *models.CoverArt
	track   *models.Track
}

// Coordinator turns the engine's event stream into a [models.PlaybackState].
//
// Events are applied one at a time in arrival order by [Coordinator.Run]. Cover and metadata lookups run on their
// own goroutines and hand their results back to the loop, so state has a single writer.
type Coordinator struct {
	engine Engine
	pub    Publisher
	covers CoverLoader
	meta   MetadataSource
	logger *log.Logger

	state       models.PlaybackState
	playRun     bool // inside an uninterrupted Playing run
	pendingMeta bool // TrackChanged seen, Playing not yet

	snapshot atomic.Pointer[models.PlaybackState]
	results  chan asyncResult
	wg       sync.WaitGroup
}

// NewCoordinator creates an idle Coordinator.
func NewCoordinator(opts Opts) *Coordinator {
	c := &Coordinator{
		engine:  opts.Engine,
		pub:     opts.Publisher,
		covers:  opts.Covers,
		meta:    opts.Metadata,
		logger:  opts.Logger,
		results: make(chan asyncResult),
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "component", "playback")
	c.snapshot.Store(&models.PlaybackState{})
	return c
}

// State returns the latest snapshot. Safe to call from any goroutine.
func (c *Coordinator) State() models.PlaybackState {
	return *c.snapshot.Load()
}

// Run consumes engine events until the stream closes or ctx is done, then waits for outstanding lookups.
func (c *Coordinator) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer c.wg.Wait()
	defer cancel()

	h := &handlers{c: c, ctx: runCtx}
	events := c.engine.Events()
	c.publish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				c.logger.Info("engine event stream closed")
				return nil
			}
			c.logger.Debug("event", "kind", ev.Kind())
			Dispatch(ev, h)
		case r := <-c.results:
			c.applyResult(runCtx, r)
		}
	}
}

func (c *Coordinator) publish() {
	s := c.state
	c.snapshot.Store(&s)
	if c.pub != nil {
		c.pub.PublishPlayback(s)
	}
}

func (c *Coordinator) toIdle() {
	c.state.PositionMS = 0
	c.state.IsPlaying = false
	c.state.TrackID = ""
	c.playRun = false
	c.pendingMeta = false
}

func (c *Coordinator) applyResult(ctx context.Context, r asyncResult) {
	if r.trackID != c.state.TrackID {
		c.logger.Debug("dropping stale lookup", "track", r.trackID, "current", c.state.TrackID)
		return
	}

	if r.cover != nil {
		c.state.CoverArt = r.cover
		s := c.state
		c.snapshot.Store(&s)
		if c.pub != nil {
			c.pub.PublishCover(r.trackID, r.cover)
		}
		return
	}

	if t := r.track; t != nil {
		if c.state.Title == "" {
			c.state.Title = t.Title
		}
		if c.state.Artist == "" {
			c.state.Artist = t.Artist
		}
		if c.state.Album == "" {
			c.state.Album = t.Album
		}
		if c.state.Composer == "" {
			c.state.Composer = t.Composer
		}
		if c.state.DurationMS == 0 {
			c.state.DurationMS = t.DurationMS
		}
		if c.state.CoverURL == "" && t.CoverURL != "" {
			c.state.CoverURL = t.CoverURL
			c.spawnCover(ctx, r.trackID, t.CoverURL)
		}
		c.publish()
	}
}

// spawnCover fetches url off the loop. Failures are logged and never reach the state.
func (c *Coordinator) spawnCover(ctx context.Context, trackID, url string) {
	if c.covers == nil || url == "" {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		art, err := c.covers.LoadCover(ctx, url)
		if err != nil {
			c.logger.Warn("cover fetch failed", "track", trackID, "url", url, "error", err)
			return
		}
		c.deliver(ctx, asyncResult{trackID: trackID, cover: art})
	}()
}

func (c *Coordinator) spawnMetadata(ctx context.Context, trackID string) {
	if c.meta == nil || trackID == "" {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t, err := c.meta.Lookup(ctx, trackID)
		if err != nil {
			c.logger.Warn("metadata lookup failed", "track", trackID, "error", err)
			return
		}
		c.deliver(ctx, asyncResult{trackID: trackID, track: &t})
	}()
}

func (c *Coordinator) remember(ctx context.Context, item AudioItem) {
	rec, ok := c.meta.(TrackRecorder)
	if !ok || item.TrackID == "" || item.Name == "" {
		return
	}
	t := models.Track{
		ID:         item.TrackID,
		URI:        item.URI,
		Title:      item.Name,
		Artist:     item.MainArtist(),
		Album:      item.Album,
		Composer:   item.Composer(),
		DurationMS: item.DurationMS,
		CoverURL:   item.CoverURL,
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := rec.Remember(ctx, t); err != nil {
			c.logger.Warn("failed to cache track", "track", t.ID, "error", err)
		}
	}()
}

func (c *Coordinator) deliver(ctx context.Context, r asyncResult) {
	select {
	case c.results <- r:
	case <-ctx.Done():
	}
}

// command sends an engine command without blocking the loop.
func (c *Coordinator) command(ctx context.Context, name string, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(ctx); err != nil {
			c.logger.Warn("engine command failed", "command", name, "error", err)
		}
	}()
}

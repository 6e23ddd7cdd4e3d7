package playback

import (
	"context"
)

// handlers applies each event to the coordinator's state. It only runs on the Run goroutine.
type handlers struct {
	c   *Coordinator
	ctx context.Context
}

func (h *handlers) OnTrackChanged(e TrackChanged) {
	c := h.c
	item := e.Item
	if item.TrackID != c.state.TrackID {
		c.state.CoverArt = nil
	}
	c.state.TrackID = item.TrackID
	c.state.Title = item.Name
	c.state.Artist = item.MainArtist()
	c.state.Album = item.Album
	c.state.Composer = item.Composer()
	c.state.DurationMS = item.DurationMS
	c.state.CoverURL = item.CoverURL
	c.pendingMeta = true
	c.publish()

	c.spawnCover(h.ctx, item.TrackID, item.CoverURL)
	c.remember(h.ctx, item)
}

func (h *handlers) OnLoading(e Loading) {
	c := h.c
	if e.TrackID != "" {
		c.state.TrackID = e.TrackID
	}
	c.state.PositionMS = e.PositionMS
	c.playRun = false
	c.publish()
}

func (h *handlers) OnPlaying(e Playing) {
	c := h.c
	if e.TrackID != "" {
		c.state.TrackID = e.TrackID
	}
	c.state.IsPlaying = true
	c.state.PositionMS = e.PositionMS
	c.playRun = true
	c.publish()

	if c.pendingMeta {
		c.pendingMeta = false
		if c.state.Title == "" {
			c.spawnMetadata(h.ctx, c.state.TrackID)
		}
	}
}

func (h *handlers) OnPaused(e Paused) {
	c := h.c
	if e.TrackID != "" {
		c.state.TrackID = e.TrackID
	}
	c.state.IsPlaying = false
	c.state.PositionMS = e.PositionMS
	c.playRun = false
	c.publish()
}

func (h *handlers) OnSeeked(e Seeked) {
	h.c.state.PositionMS = e.PositionMS
	h.c.publish()
}

func (h *handlers) OnPositionCorrection(e PositionCorrection) {
	h.c.state.PositionMS = e.PositionMS
	h.c.publish()
}

// OnPositionChanged ignores backward ticks while playing; only seeks and corrections move the position back.
func (h *handlers) OnPositionChanged(e PositionChanged) {
	c := h.c
	if c.playRun && e.PositionMS < c.state.PositionMS {
		c.logger.Debug("ignoring backward position", "position_ms", e.PositionMS, "current_ms", c.state.PositionMS)
		return
	}
	c.state.PositionMS = e.PositionMS
	c.publish()
}

func (h *handlers) OnTimeToPreloadNextTrack(e TimeToPreloadNextTrack) {
	if e.TrackID == "" {
		return
	}
	h.c.command(h.ctx, "preload", func(ctx context.Context) error {
		return h.c.engine.Preload(ctx, e.TrackID)
	})
}

func (h *handlers) OnEndOfTrack(e EndOfTrack) {
	h.c.toIdle()
	h.c.publish()
	h.c.command(h.ctx, "pause", h.c.engine.Pause)
}

func (h *handlers) OnStopped(e Stopped) {
	h.c.toIdle()
	h.c.publish()
}

func (h *handlers) OnUnavailable(e Unavailable) {
	h.c.logger.Warn("track unavailable", "track", e.TrackID)
}

func (h *handlers) OnPreloading(e Preloading) {
	h.c.logger.Debug("preloading", "track", e.TrackID)
}

func (h *handlers) OnSessionConnected(e SessionConnected) {
	h.c.logger.Info("engine session connected", "username", e.Username, "connection_id", e.ConnectionID)
}

func (h *handlers) OnSessionDisconnected(e SessionDisconnected) {
	h.c.logger.Info("engine session disconnected", "username", e.Username, "connection_id", e.ConnectionID)
}

func (h *handlers) OnSessionClientChanged(e SessionClientChanged) {
	h.c.logger.Debug("engine client changed", "client_id", e.ClientID, "client_name", e.ClientName)
}

func (h *handlers) OnPlayRequestIDChanged(e PlayRequestIDChanged) {
	h.c.logger.Debug("play request changed", "id", e.PlayRequestID)
}

func (h *handlers) OnVolumeChanged(e VolumeChanged) {
	h.c.logger.Debug("volume changed", "volume", e.Volume)
}

func (h *handlers) OnUnknown(e Unknown) {
	h.c.logger.Debug("ignoring unknown engine event", "name", e.Name)
}

var _ Handler = (*handlers)(nil)

package playback

import "strings"

// PlayerEvent is a notification from the playback engine.
//
// The set of variants is closed: each implements dispatch, so a new variant without a [Handler] method fails to
// compile.
type PlayerEvent interface {
	Kind() string
	dispatch(h Handler)
}

// Handler has one method per [PlayerEvent] variant.
type Handler interface {
	OnTrackChanged(TrackChanged)
	OnLoading(Loading)
	OnPlaying(Playing)
	OnPaused(Paused)
	OnSeeked(Seeked)
	OnPositionChanged(PositionChanged)
	OnPositionCorrection(PositionCorrection)
	OnPreloading(Preloading)
	OnTimeToPreloadNextTrack(TimeToPreloadNextTrack)
	OnEndOfTrack(EndOfTrack)
	OnStopped(Stopped)
	OnUnavailable(Unavailable)
	OnSessionConnected(SessionConnected)
	OnSessionDisconnected(SessionDisconnected)
	OnSessionClientChanged(SessionClientChanged)
	OnPlayRequestIDChanged(PlayRequestIDChanged)
	OnVolumeChanged(VolumeChanged)
	OnUnknown(Unknown)
}

// Dispatch calls the [Handler] method matching ev.
func Dispatch(ev PlayerEvent, h Handler) {
	ev.dispatch(h)
}

// AudioItem is the metadata carried by [TrackChanged].
type AudioItem struct {
	TrackID    string
	URI        string
	Name       string
	Artists    []string
	Album      string
	Composers  []string
	DurationMS int64
	CoverURL   string
}

// MainArtist is the first listed artist.
func (a AudioItem) MainArtist() string {
	if len(a.Artists) == 0 {
		return ""
	}
	return a.Artists[0]
}

// Composer joins all composers.
func (a AudioItem) Composer() string {
	return strings.Join(a.Composers, ", ")
}

type (
	TrackChanged struct{ Item AudioItem }

	Loading struct {
		TrackID    string
		PositionMS int64
	}
	Playing struct {
		TrackID    string
		PositionMS int64
	}
	Paused struct {
		TrackID    string
		PositionMS int64
	}
	Seeked struct {
		TrackID    string
		PositionMS int64
	}
	PositionChanged struct {
		TrackID    string
		PositionMS int64
	}
	PositionCorrection struct {
		TrackID    string
		PositionMS int64
	}

	Preloading             struct{ TrackID string }
	TimeToPreloadNextTrack struct{ TrackID string }
	EndOfTrack             struct{ TrackID string }
	Stopped                struct{ TrackID string }
	Unavailable            struct{ TrackID string }

	SessionConnected struct {
		ConnectionID string
		Username     string
	}
	SessionDisconnected struct {
		ConnectionID string
		Username     string
	}
	SessionClientChanged struct {
		ClientID   string
		ClientName string
	}
	PlayRequestIDChanged struct{ PlayRequestID uint64 }
	VolumeChanged        struct{ Volume int } // percent

	// Unknown is any engine event this package does not model.
	Unknown struct{ Name string }
)

func (TrackChanged) Kind() string           { return "track_changed" }
func (Loading) Kind() string                { return "loading" }
func (Playing) Kind() string                { return "playing" }
func (Paused) Kind() string                 { return "paused" }
func (Seeked) Kind() string                 { return "seeked" }
func (PositionChanged) Kind() string        { return "position_changed" }
func (PositionCorrection) Kind() string     { return "position_correction" }
func (Preloading) Kind() string             { return "preloading" }
func (TimeToPreloadNextTrack) Kind() string { return "time_to_preload_next_track" }
func (EndOfTrack) Kind() string             { return "end_of_track" }
func (Stopped) Kind() string                { return "stopped" }
func (Unavailable) Kind() string            { return "unavailable" }
func (SessionConnected) Kind() string       { return "session_connected" }
func (SessionDisconnected) Kind() string    { return "session_disconnected" }
func (SessionClientChanged) Kind() string   { return "session_client_changed" }
func (PlayRequestIDChanged) Kind() string   { return "play_request_id_changed" }
func (VolumeChanged) Kind() string          { return "volume_changed" }
func (Unknown) Kind() string                { return "unknown" }

func (e TrackChanged) dispatch(h Handler)           { h.OnTrackChanged(e) }
func (e Loading) dispatch(h Handler)                { h.OnLoading(e) }
func (e Playing) dispatch(h Handler)                { h.OnPlaying(e) }
func (e Paused) dispatch(h Handler)                 { h.OnPaused(e) }
func (e Seeked) dispatch(h Handler)                 { h.OnSeeked(e) }
func (e PositionChanged) dispatch(h Handler)        { h.OnPositionChanged(e) }
func (e PositionCorrection) dispatch(h Handler)     { h.OnPositionCorrection(e) }
func (e Preloading) dispatch(h Handler)             { h.OnPreloading(e) }
func (e TimeToPreloadNextTrack) dispatch(h Handler) { h.OnTimeToPreloadNextTrack(e) }
func (e EndOfTrack) dispatch(h Handler)             { h.OnEndOfTrack(e) }
func (e Stopped) dispatch(h Handler)                { h.OnStopped(e) }
func (e Unavailable) dispatch(h Handler)            { h.OnUnavailable(e) }
func (e SessionConnected) dispatch(h Handler)       { h.OnSessionConnected(e) }
func (e SessionDisconnected) dispatch(h Handler)    { h.OnSessionDisconnected(e) }
func (e SessionClientChanged) dispatch(h Handler)   { h.OnSessionClientChanged(e) }
func (e PlayRequestIDChanged) dispatch(h Handler)   { h.OnPlayRequestIDChanged(e) }
func (e VolumeChanged) dispatch(h Handler)          { h.OnVolumeChanged(e) }
func (e Unknown) dispatch(h Handler)                { h.OnUnknown(e) }

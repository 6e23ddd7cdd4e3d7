package player

import (
	"encoding/json"
	"time"

	"github.com/desertthunder/taan/internal/playback"
)

// tracker translates daemon events and estimates the playback position between them.
//
// The daemon only reports positions on metadata and seek events, so while playing the
// position is extrapolated from the wall clock.
type tracker struct {
	now func() time.Time

	trackID    string
	durationMS int64
	positionMS int64
	playing    bool
	since      time.Time
}

func newTracker(now func() time.Time) *tracker {
	if now == nil {
		now = time.Now
	}
	return &tracker{now: now}
}

func (t *tracker) position() int64 {
	pos := t.positionMS
	if t.playing {
		pos += t.now().Sub(t.since).Milliseconds()
	}
	if t.durationMS > 0 {
		pos = min(pos, t.durationMS)
	}
	return pos
}

func (t *tracker) setPosition(ms int64) {
	t.positionMS = ms
	t.since = t.now()
}

func (t *tracker) reset() {
	t.trackID = ""
	t.durationMS = 0
	t.positionMS = 0
	t.playing = false
}

func (t *tracker) idFrom(uri string) string {
	if uri == "" {
		return t.trackID
	}
	return TrackID(uri)
}

// translate maps a daemon event onto zero or more [playback.PlayerEvent] values.
func (t *tracker) translate(ev Event) ([]playback.PlayerEvent, error) {
	switch ev.Type {
	case "metadata":
		var d eventMetadata
		if err := decode(ev.Data, &d); err != nil {
			return nil, err
		}
		t.trackID = TrackID(d.URI)
		t.durationMS = d.Duration
		t.setPosition(d.Position)
		return []playback.PlayerEvent{playback.TrackChanged{Item: playback.AudioItem{
			TrackID:    t.trackID,
			URI:        d.URI,
			Name:       d.Name,
			Artists:    d.ArtistNames,
			Album:      d.AlbumName,
			DurationMS: d.Duration,
			CoverURL:   d.AlbumCover,
		}}}, nil
	case "will_play":
		var d eventTrack
		if err := decode(ev.Data, &d); err != nil {
			return nil, err
		}
		t.trackID = t.idFrom(d.URI)
		t.setPosition(0)
		return []playback.PlayerEvent{playback.Loading{TrackID: t.trackID}}, nil
	case "playing":
		var d eventTrack
		if err := decode(ev.Data, &d); err != nil {
			return nil, err
		}
		t.trackID = t.idFrom(d.URI)
		pos := t.position()
		t.playing = true
		t.setPosition(pos)
		return []playback.PlayerEvent{playback.Playing{TrackID: t.trackID, PositionMS: pos}}, nil
	case "paused":
		var d eventTrack
		if err := decode(ev.Data, &d); err != nil {
			return nil, err
		}
		t.trackID = t.idFrom(d.URI)
		pos := t.position()
		t.playing = false
		t.setPosition(pos)
		return []playback.PlayerEvent{playback.Paused{TrackID: t.trackID, PositionMS: pos}}, nil
	case "seek":
		var d eventSeek
		if err := decode(ev.Data, &d); err != nil {
			return nil, err
		}
		if d.Duration > 0 {
			t.durationMS = d.Duration
		}
		t.setPosition(d.Position)
		return []playback.PlayerEvent{playback.Seeked{TrackID: t.idFrom(d.URI), PositionMS: d.Position}}, nil
	case "not_playing":
		id := t.trackID
		t.reset()
		return []playback.PlayerEvent{playback.EndOfTrack{TrackID: id}}, nil
	case "stopped":
		id := t.trackID
		t.reset()
		return []playback.PlayerEvent{playback.Stopped{TrackID: id}}, nil
	case "volume":
		var d eventVolume
		if err := decode(ev.Data, &d); err != nil {
			return nil, err
		}
		vol := d.Value
		if d.Max > 0 {
			vol = d.Value * 100 / d.Max
		}
		return []playback.PlayerEvent{playback.VolumeChanged{Volume: vol}}, nil
	case "active":
		return []playback.PlayerEvent{playback.SessionConnected{}}, nil
	case "inactive":
		return []playback.PlayerEvent{playback.SessionDisconnected{}}, nil
	default:
		return []playback.PlayerEvent{playback.Unknown{Name: ev.Type}}, nil
	}
}

// tick reports the estimated position while a track is playing.
func (t *tracker) tick() (playback.PlayerEvent, bool) {
	if !t.playing || t.trackID == "" {
		return nil, false
	}
	return playback.PositionChanged{TrackID: t.trackID, PositionMS: t.position()}, true
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

package player

import (
	"encoding/json"
	"strings"
)

// Event is a websocket message sent by go-librespot on /events.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// eventMetadata is the payload of "metadata" events.
type eventMetadata struct {
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	ArtistNames []string `json:"artist_names"`
	AlbumName   string   `json:"album_name"`
	AlbumCover  string   `json:"album_cover_url"`
	Duration    int64    `json:"duration"` // ms
	Position    int64    `json:"position"` // ms
}

// eventTrack is the payload of will_play, playing, paused and not_playing.
type eventTrack struct {
	URI        string `json:"uri"`
	ContextURI string `json:"context_uri"`
	PlayOrigin string `json:"play_origin"`
}

type eventSeek struct {
	URI      string `json:"uri"`
	Position int64  `json:"position"` // ms
	Duration int64  `json:"duration"` // ms
}

type eventVolume struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

const trackPrefix = "spotify:track:"

// TrackURI returns the spotify URI for a track ID. URIs pass through unchanged.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return trackPrefix + id
}

// TrackID returns the ID portion of a spotify URI.
func TrackID(uri string) string {
	if i := strings.LastIndexByte(uri, ':'); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

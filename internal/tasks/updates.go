package tasks

import (
	"github.com/desertthunder/taan/internal/models"
)

// UpdateKind identifies the payload carried by an [Update].
type UpdateKind int

const (
	AuthStateUpdate UpdateKind = iota
	PlaybackUpdate
	CoverUpdate
	PlaylistsUpdate
	PlaylistItemsUpdate
	ErrorUpdate
)

func (k UpdateKind) String() string {
	switch k {
	case AuthStateUpdate:
		return "auth_state"
	case PlaybackUpdate:
		return "playback"
	case CoverUpdate:
		return "cover"
	case PlaylistsUpdate:
		return "playlists"
	case PlaylistItemsUpdate:
		return "playlist_items"
	case ErrorUpdate:
		return "error"
	default:
		return ""
	}
}

// Update is an outbound event for the UI.
type Update struct {
	Kind UpdateKind

	Auth     models.AuthState     // AuthStateUpdate
	Playback models.PlaybackState // PlaybackUpdate
	TrackID  string               // CoverUpdate, the track the cover belongs to
	Cover    *models.CoverArt     // CoverUpdate

	Playlists  []models.Playlist // PlaylistsUpdate
	PlaylistID string            // PlaylistItemsUpdate
	Tracks     []models.Track    // PlaylistItemsUpdate
	Offset     int               // page offset for list updates
	Total      int               // total items across all pages
	HasMore    bool

	Message string // ErrorUpdate
}

func authUpdate(s models.AuthState) Update {
	return Update{Kind: AuthStateUpdate, Auth: s}
}

func playbackUpdate(s models.PlaybackState) Update {
	return Update{Kind: PlaybackUpdate, Playback: s}
}

func coverUpdate(trackID string, art *models.CoverArt) Update {
	return Update{Kind: CoverUpdate, TrackID: trackID, Cover: art}
}

func playlistsUpdate(playlists []models.Playlist, offset, total int, more bool) Update {
	return Update{Kind: PlaylistsUpdate, Playlists: playlists, Offset: offset, Total: total, HasMore: more}
}

func playlistItemsUpdate(id string, tracks []models.Track, offset, total int, more bool) Update {
	return Update{Kind: PlaylistItemsUpdate, PlaylistID: id, Tracks: tracks, Offset: offset, Total: total, HasMore: more}
}

func errorUpdate(message string) Update {
	return Update{Kind: ErrorUpdate, Message: message}
}

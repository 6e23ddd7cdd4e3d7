package models

import (
	"image"
	"time"

	"golang.org/x/oauth2"
)

// expiryDelta is subtracted from a token's expiry so requests are not issued in the last seconds of its lifetime.
const expiryDelta = 10 * time.Second

// CredentialKind records where a set of [Credentials] came from.
type CredentialKind int

const (
	CredentialsStored CredentialKind = iota
	CredentialsAccessToken
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialsStored:
		return "stored"
	case CredentialsAccessToken:
		return "access_token"
	default:
		return "unknown"
	}
}

// Credentials is opaque auth material: either a cached blob or a token from interactive login.
type Credentials struct {
	Kind     CredentialKind `json:"kind"`
	Username string         `json:"username,omitempty"`
	Token    *oauth2.Token  `json:"token"`
}

// Valid reports whether the credentials can be used to bind a session.
func (c *Credentials) Valid() bool {
	return c != nil && c.Token != nil && (c.Token.AccessToken != "" || c.Token.RefreshToken != "")
}

// Session is one authenticated streaming connection.
type Session struct {
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Connected    bool      `json:"connected"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// BearerToken is a REST credential derived from a [Session].
type BearerToken struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
	Scopes      []string  `json:"scopes"`
}

// Expired reports whether the token is known to be expired at now. A zero Expiry never expires.
func (t BearerToken) Expired(now time.Time) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return now.After(t.Expiry.Add(-expiryDelta))
}

// CoverArt is a decoded, thumbnailed album cover.
type CoverArt struct {
	URL    string      `json:"url"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Accent string      `json:"accent"` // dominant colour as #rrggbb
	Image  image.Image `json:"-"`
}

// PlaybackState is the UI-facing snapshot derived from engine events.
type PlaybackState struct {
	TrackID    string    `json:"track_id"`
	IsPlaying  bool      `json:"is_playing"`
	PositionMS int64     `json:"position_ms"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	Composer   string    `json:"composer"`
	DurationMS int64     `json:"duration_ms"`
	CoverURL   string    `json:"cover_url"`
	CoverArt   *CoverArt `json:"cover_art,omitempty"`
}

// AuthStatus is the login lifecycle shown by the UI.
type AuthStatus int

const (
	LoggedOut AuthStatus = iota
	Connecting
	LoggingIn
	LoggedIn
)

func (s AuthStatus) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case Connecting:
		return "connecting"
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	default:
		return "unknown"
	}
}

// AuthState pairs an [AuthStatus] with the user it applies to and an optional message.
type AuthState struct {
	Status   AuthStatus `json:"status"`
	Username string     `json:"username,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// Playlist represents a playlist owned by or followed by the user.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner"`
	TrackCount  int       `json:"track_count"`
	Public      bool      `json:"public"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	FetchedAt   time.Time `json:"fetched_at,omitzero"`
}

// Track represents a playable item.
type Track struct {
	ID         string    `json:"id"`
	URI        string    `json:"uri"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	Composer   string    `json:"composer,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CoverURL   string    `json:"cover_url,omitempty"`
	FetchedAt  time.Time `json:"fetched_at,omitzero"`
}

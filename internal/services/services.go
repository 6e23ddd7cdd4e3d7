// package services implements the Spotify REST client and the streaming session that feeds it tokens
package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/taan/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested when the config lists none.
var DefaultScopes = []string{
	spotifyauth.ScopeStreaming,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// OAuthConfig builds the [oauth2.Config] for the accounts service from the [credentials.spotify] section.
func OAuthConfig(c shared.SpotifyConfig) (*oauth2.Config, error) {
	if c.ClientID == "" {
		return nil, fmt.Errorf("%w: credentials.spotify.client_id", shared.ErrMissingConfig)
	}

	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authStyle := oauth2.AuthStyleInParams
	if c.ClientSecret != "" {
		authStyle = oauth2.AuthStyleInHeader
	}

	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyauth.AuthURL,
			TokenURL:  spotifyauth.TokenURL,
			AuthStyle: authStyle,
		},
	}, nil
}

// HTTPError is a non-2xx Web API response.
type HTTPError struct {
	Status  int
	Headers http.Header
	Message string
}

func newHTTPError(resp *http.Response) *HTTPError {
	return &HTTPError{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
		Message: readErrorBody(resp.Body),
	}
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrUnauthenticated
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

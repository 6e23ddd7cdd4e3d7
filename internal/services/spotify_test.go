package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
	tu "github.com/desertthunder/taan/internal/testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *SpotifyClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSpotifyClient(ClientOpts{BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestSpotifyClient(t *testing.T) {
	t.Run("Without Token", func(t *testing.T) {
		var hits atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

		_, err := c.CurrentUser(context.Background())
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if hits.Load() != 0 {
			t.Error("no request should be issued without a token")
		}
	})

	t.Run("Expired Token Is Never Sent", func(t *testing.T) {
		var hits atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
		c.SetToken(models.BearerToken{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)})

		_, err := c.CurrentUser(context.Background())
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if hits.Load() != 0 {
			t.Error("expired token should not reach the server")
		}
	})

	t.Run("Sends Bearer Token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer abc" {
				t.Errorf("unexpected Authorization header %q", got)
			}
			json.NewEncoder(w).Encode(SpotifyUser{ID: "wizzler", DisplayName: "Wizzler"})
		})
		c.SetToken(models.BearerToken{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)})

		user, err := c.CurrentUser(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "wizzler" {
			t.Errorf("expected user wizzler, got %s", user.ID)
		}
	})

	t.Run("HTTPError Carries Status And Headers", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"status":429,"message":"API rate limit exceeded"}}`))
		})
		c.SetToken(models.BearerToken{AccessToken: "abc"})

		_, err := c.UserPlaylists(context.Background(), 10, 0)
		var he *HTTPError
		if !errors.As(err, &he) {
			t.Fatalf("expected *HTTPError, got %T %v", err, err)
		}
		if he.Status != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", he.Status)
		}
		if shared.ParseRetryAfter(he.Headers) != 7*time.Second {
			t.Errorf("expected Retry-After 7s, got %v", shared.ParseRetryAfter(he.Headers))
		}
		if he.Message != "API rate limit exceeded" {
			t.Errorf("unexpected message %q", he.Message)
		}
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Error("expected errors.Is ErrRateLimited")
		}
		if StatusOf(err) != 429 {
			t.Errorf("StatusOf() = %d", StatusOf(err))
		}
	})

	t.Run("Pagination Query", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/p1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("limit") != "50" || r.URL.Query().Get("offset") != "0" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"items":[
				{"track":{"id":"t1","name":"One","uri":"spotify:track:t1","duration_ms":61000,
					"artists":[{"name":"Main"},{"name":"Feat"}],
					"album":{"name":"LP","images":[{"url":"http://img/1"}]}}},
				{"track":null},
				{"is_local":true,"track":{"id":"","name":"local"}}
			],"total":3,"limit":50,"offset":0,"next":null}`))
		})
		c.SetToken(models.BearerToken{AccessToken: "abc"})

		page, err := c.PlaylistItems(context.Background(), "p1", 500, -4)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.HasNext() {
			t.Error("expected last page")
		}

		tracks := ToTracks(page.Items)
		if len(tracks) != 1 {
			t.Fatalf("expected 1 playable track, got %d", len(tracks))
		}
		if tracks[0].Artist != "Main" || tracks[0].Album != "LP" || tracks[0].CoverURL != "http://img/1" {
			t.Errorf("unexpected projection %+v", tracks[0])
		}
	})

	t.Run("Default Page Size", func(t *testing.T) {
		q := pageQuery(0, 0)
		if q.Get("limit") != "10" {
			t.Errorf("expected default limit 10, got %s", q.Get("limit"))
		}
	})

	t.Run("Missing IDs", func(t *testing.T) {
		c := NewSpotifyClient(ClientOpts{})
		c.SetToken(models.BearerToken{AccessToken: "abc"})
		if _, err := c.Playlist(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := c.Track(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Token Swap Is Atomic", func(t *testing.T) {
		c := NewSpotifyClient(ClientOpts{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 1000; i++ {
				c.SetToken(models.BearerToken{AccessToken: strings.Repeat("a", i%7+1)})
			}
		}()
		for i := 0; i < 1000; i++ {
			if tok, ok := c.Token(); ok && strings.Trim(tok.AccessToken, "a") != "" {
				t.Fatalf("torn token %q", tok.AccessToken)
			}
		}
		<-done
	})
}

func TestToPlaylist(t *testing.T) {
	p := ToPlaylist(SpotifyPlaylist{ID: "p", Name: "Mix", Owner: Owner{ID: "uid"}, Tracks: trackRef{Total: 4}})
	if p.Owner != "uid" || p.TrackCount != 4 {
		t.Errorf("unexpected playlist %+v", p)
	}
}

func TestOAuthConfig(t *testing.T) {
	t.Run("Requires Client ID", func(t *testing.T) {
		if _, err := OAuthConfig(shared.SpotifyConfig{}); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Default Scopes", func(t *testing.T) {
		cfg, err := OAuthConfig(shared.SpotifyConfig{ClientID: "id", RedirectURI: "http://127.0.0.1:8898/login"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cfg.Scopes) != len(DefaultScopes) {
			t.Errorf("expected default scopes, got %v", cfg.Scopes)
		}
		if !strings.Contains(cfg.Endpoint.AuthURL, "accounts.spotify.com") {
			t.Errorf("unexpected auth url %s", cfg.Endpoint.AuthURL)
		}
		authURL := cfg.AuthCodeURL("state123")
		if !strings.Contains(authURL, "client_id=id") || !strings.Contains(authURL, "state123") {
			t.Errorf("unexpected auth code url %s", authURL)
		}
	})
}

func TestSpotifyClientTransport(t *testing.T) {
	newClient := func(rt http.RoundTripper) *SpotifyClient {
		c := NewSpotifyClient(ClientOpts{BaseURL: "http://api.invalid/v1", HTTPClient: &http.Client{Transport: rt}})
		c.SetToken(models.BearerToken{AccessToken: "at", Expiry: time.Now().Add(time.Hour)})
		return c
	}

	t.Run("Connection Failure", func(t *testing.T) {
		c := newClient(tu.NewMockRoundTripper(nil, errors.New("connection failed")))

		_, err := c.CurrentUser(context.Background())
		if err == nil || !strings.Contains(err.Error(), "connection failed") {
			t.Fatalf("expected transport error, got %v", err)
		}
		if StatusOf(err) != 0 {
			t.Errorf("transport failure should carry no status, got %d", StatusOf(err))
		}
	})

	t.Run("Unreadable Body", func(t *testing.T) {
		c := newClient(tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       &tu.FCloser{},
		}, nil))

		_, err := c.UserPlaylists(context.Background(), 10, 0)
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Fatalf("expected decode error, got %v", err)
		}
	})
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// SpotifySession is the streaming session. It binds stored or fresh [models.Credentials] and exchanges them
// for bearer tokens, refreshing through the accounts service when a token has already been handed out.
type SpotifySession struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger

	mu      sync.RWMutex
	session models.Session
	creds   *models.Credentials
	token   *oauth2.Token
	issued  bool
}

// NewSpotifySession creates a disconnected session.
func NewSpotifySession(config *oauth2.Config, httpClient *http.Client, baseURL string, logger *log.Logger) *SpotifySession {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SpotifySession{
		config:     config,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Connect binds the session to creds. A stale access token is refreshed first, then the owner's profile is
// fetched to confirm the credentials and learn the username. Any previous session is replaced.
func (s *SpotifySession) Connect(ctx context.Context, creds *models.Credentials) error {
	if !creds.Valid() {
		return fmt.Errorf("%w: no token in credentials", shared.ErrMissingCredentials)
	}

	tok, err := s.tokenSource(ctx, creds.Token).Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	user, err := s.probe(ctx, tok)
	if err != nil {
		return err
	}

	username := user.ID
	if username == "" {
		username = creds.Username
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
	s.issued = false
	s.creds = &models.Credentials{Kind: models.CredentialsStored, Username: username, Token: tok}
	s.session = models.Session{
		ConnectionID: uuid.NewString(),
		Username:     username,
		Connected:    true,
		ConnectedAt:  time.Now(),
	}
	s.logger.Debug("session connected", "username", username, "connection_id", s.session.ConnectionID)
	return nil
}

// ExchangeToken returns a bearer token for the REST client.
//
// The first call after Connect hands out the token Connect obtained. Later calls force a refresh so a
// token the API rejected is never returned twice. The refresh runs without holding the session lock.
func (s *SpotifySession) ExchangeToken(ctx context.Context) (models.BearerToken, error) {
	s.mu.Lock()
	if !s.session.Connected || s.token == nil {
		s.mu.Unlock()
		return models.BearerToken{}, shared.ErrNotConnected
	}
	tok := s.token
	connectionID := s.session.ConnectionID
	refresh := s.issued || !tok.Valid()
	s.issued = true
	s.mu.Unlock()

	if refresh {
		fresh, err := s.refresh(ctx, tok)
		if err != nil {
			return models.BearerToken{}, err
		}
		tok = fresh

		s.mu.Lock()
		if s.session.Connected && s.session.ConnectionID == connectionID {
			s.token = fresh
			s.creds = &models.Credentials{Kind: models.CredentialsStored, Username: s.session.Username, Token: fresh}
		}
		s.mu.Unlock()
	}

	return models.BearerToken{
		AccessToken: tok.AccessToken,
		Expiry:      tok.Expiry,
		Scopes:      s.grantedScopes(tok),
	}, nil
}

// refresh exchanges tok's refresh token for a new access token, keeping the refresh token when the
// response does not rotate it.
func (s *SpotifySession) refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	stale := *tok
	stale.Expiry = time.Now().Add(-time.Minute)

	fresh, err := s.tokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, nil
}

// Username returns the account bound to the session, empty when disconnected.
func (s *SpotifySession) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Username
}

// Connected reports whether the session is live.
func (s *SpotifySession) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Connected
}

// Snapshot returns a copy of the session record.
func (s *SpotifySession) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Credentials returns the most recent credentials, including any rotated refresh token.
func (s *SpotifySession) Credentials() *models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

// Disconnect drops the session and its tokens.
func (s *SpotifySession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.Session{}
	s.creds = nil
	s.token = nil
	s.issued = false
}

// tokenSource uses a detached context: the refresh may outlive the caller's request.
func (s *SpotifySession) tokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	octx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, s.httpClient)
	return s.config.TokenSource(octx, tok)
}

func (s *SpotifySession) probe(ctx context.Context, tok *oauth2.Token) (*SpotifyUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	tok.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newHTTPError(resp)
	}

	var user SpotifyUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &user, nil
}

func (s *SpotifySession) grantedScopes(tok *oauth2.Token) []string {
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		return strings.Fields(scope)
	}
	return append([]string(nil), s.config.Scopes...)
}

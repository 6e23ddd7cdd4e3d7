package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/server"
	"github.com/desertthunder/taan/internal/shared"
	"golang.org/x/oauth2"
)

// BrowserLogin runs the authorization code flow with PKCE against a local callback listener.
type BrowserLogin struct {
	Config *oauth2.Config
	// Addr overrides the listen address; by default it is taken from the redirect URL.
	Addr   string
	Open   shared.BrowserOpener
	Logger *log.Logger
	// Prompt is called with the authorization URL when the browser cannot be opened.
	Prompt func(authURL string)
}

// Run satisfies [Login]. It returns when the callback arrives or ctx is done.
func (b *BrowserLogin) Run(ctx context.Context) (*models.Credentials, error) {
	redirect, err := url.Parse(b.Config.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, b.Config.RedirectURL)
	}
	addr := b.Addr
	if addr == "" {
		addr = redirect.Host
	}
	logger := b.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(b.Config, state, oauth2.GenerateVerifier(), redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger))
	router.Handler(handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := handler.AuthCodeURL()
	logger.Info("waiting for authorization", "callback", redirect.String())

	open := b.Open
	if open == nil {
		open = shared.OpenBrowser
	}
	if err := open(authURL); err != nil {
		logger.Warn("failed to open browser", "error", err)
		if b.Prompt != nil {
			b.Prompt(authURL)
		}
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrLoginAbandoned, ctx.Err())
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}
	return &models.Credentials{Kind: models.CredentialsAccessToken, Token: result.Token}, nil
}

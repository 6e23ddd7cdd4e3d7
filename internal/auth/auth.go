package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/services"
	"github.com/desertthunder/taan/internal/shared"
)

// Store holds previously saved credentials. Load returns (nil, nil) when nothing is stored.
type Store interface {
	Load() (*models.Credentials, error)
	Save(creds *models.Credentials) error
	Clear() error
}

// StreamingSession is the long-lived authenticated connection that bearer tokens are derived from.
type StreamingSession interface {
	Connect(ctx context.Context, creds *models.Credentials) error
	ExchangeToken(ctx context.Context) (models.BearerToken, error)
	Username() string
	Connected() bool
	Disconnect()
}

// TokenSink receives derived bearer tokens; implemented by [services.SpotifyClient].
type TokenSink interface {
	SetToken(t models.BearerToken)
	ClearToken()
}

// Login runs an interactive flow and returns fresh credentials.
type Login func(ctx context.Context) (*models.Credentials, error)

// credentialSource is implemented by sessions whose refresh token can rotate.
type credentialSource interface {
	Credentials() *models.Credentials
}

// Context owns the process's single session and REST client.
type Context struct {
	Session StreamingSession
	Client  TokenSink
}

// CoordinatorOpts configures a [Coordinator].
type CoordinatorOpts struct {
	Store   Store
	Login   Login
	Retry   shared.RetryConfig
	Sleep   shared.Sleeper
	Logger  *log.Logger
	OnState func(models.AuthState)
}

// Coordinator connects the session, derives bearer tokens, and runs interactive logins.
type Coordinator struct {
	session StreamingSession
	client  TokenSink
	store   Store
	login   Login
	retry   shared.RetryConfig
	sleep   shared.Sleeper
	logger  *log.Logger
	onState func(models.AuthState)

	mu    sync.Mutex
	state models.AuthState
}

// NewCoordinator creates a Coordinator around actx.
func NewCoordinator(actx *Context, opts CoordinatorOpts) *Coordinator {
	c := &Coordinator{
		session: actx.Session,
		client:  actx.Client,
		store:   opts.Store,
		login:   opts.Login,
		retry:   opts.Retry,
		sleep:   opts.Sleep,
		logger:  opts.Logger,
		onState: opts.OnState,
	}
	if c.sleep == nil {
		c.sleep = shared.Sleep
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "component", "auth")
	return c
}

// InitFromCache connects with stored credentials.
func (c *Coordinator) InitFromCache(ctx context.Context) error {
	if c.store == nil {
		return shared.NewAuthError(shared.KindFatal, "init", errors.New("no credential store"))
	}

	creds, err := c.store.Load()
	if err != nil {
		c.setState(models.AuthState{Status: models.LoggedOut, Message: err.Error()})
		return shared.NewAuthError(shared.KindFatal, "init", err)
	}
	if creds == nil {
		c.setState(models.AuthState{Status: models.LoggedOut})
		return shared.NewAuthError(shared.KindUnauthenticated, "init", shared.ErrMissingCredentials)
	}

	c.logger.Debug("found cached credentials", "kind", creds.Kind, "username", creds.Username)
	return c.Connect(ctx, creds)
}

// InteractiveLogin runs the login collaborator, saves what it returns and connects.
//
// If ctx is done before the collaborator returns, the attempt is abandoned and any credentials that
// arrive later are discarded.
func (c *Coordinator) InteractiveLogin(ctx context.Context) error {
	if c.login == nil {
		return shared.NewAuthError(shared.KindUnauthenticated, "login", errors.New("interactive login is not configured"))
	}
	c.setState(models.AuthState{Status: models.LoggingIn})

	type result struct {
		creds *models.Credentials
		err   error
	}
	done := make(chan result, 1)
	go func() {
		creds, err := c.login(ctx)
		done <- result{creds, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		go func() {
			if late := <-done; late.creds != nil {
				c.logger.Info("discarding credentials from abandoned login")
			}
		}()
		c.setState(models.AuthState{Status: models.LoggedOut, Message: "login abandoned"})
		return shared.NewAuthError(shared.KindUnauthenticated, "login", shared.ErrLoginAbandoned)
	case r = <-done:
	}

	if ctx.Err() != nil {
		c.setState(models.AuthState{Status: models.LoggedOut, Message: "login abandoned"})
		return shared.NewAuthError(shared.KindUnauthenticated, "login", shared.ErrLoginAbandoned)
	}
	if r.err != nil {
		c.setState(models.AuthState{Status: models.LoggedOut, Message: r.err.Error()})
		return shared.NewAuthError(shared.KindUnauthenticated, "login", r.err)
	}
	if !r.creds.Valid() {
		c.setState(models.AuthState{Status: models.LoggedOut, Message: "login returned no token"})
		return shared.NewAuthError(shared.KindUnauthenticated, "login", shared.ErrMissingCredentials)
	}

	creds := *r.creds
	creds.Kind = models.CredentialsAccessToken
	c.save(&creds)

	return c.Connect(ctx, &creds)
}

// Connect binds the session to creds, then derives the first bearer token.
func (c *Coordinator) Connect(ctx context.Context, creds *models.Credentials) error {
	if creds == nil {
		return shared.NewAuthError(shared.KindUnauthenticated, "connect", shared.ErrMissingCredentials)
	}
	c.setState(models.AuthState{Status: models.Connecting, Username: creds.Username})

	if err := c.session.Connect(ctx, creds); err != nil {
		c.setState(models.AuthState{Status: models.LoggedOut, Message: err.Error()})
		return shared.NewAuthError(connectKind(err), "connect", err)
	}
	if err := c.DeriveWebToken(ctx); err != nil {
		c.setState(models.AuthState{Status: models.LoggedOut, Message: err.Error()})
		return err
	}

	username := c.session.Username()
	c.logger.Info("logged in", "username", username)
	c.setState(models.AuthState{Status: models.LoggedIn, Username: username})
	return nil
}

// DeriveWebToken exchanges the live session for a bearer token and installs it in the REST client.
func (c *Coordinator) DeriveWebToken(ctx context.Context) error {
	if !c.session.Connected() {
		return shared.NewAuthError(shared.KindUnauthenticated, "derive", shared.ErrNotConnected)
	}

	tok, err := c.session.ExchangeToken(ctx)
	if err != nil {
		return shared.NewAuthError(shared.KindUnauthenticated, "derive", err)
	}
	c.client.SetToken(tok)
	c.logger.Debug("installed bearer token", "expiry", tok.Expiry)

	if src, ok := c.session.(credentialSource); ok {
		if creds := src.Credentials(); creds != nil {
			c.save(creds)
		}
	}
	return nil
}

// Logout forgets stored credentials and drops the session and token.
func (c *Coordinator) Logout(ctx context.Context) error {
	var err error
	if c.store != nil {
		if err = c.store.Clear(); err != nil {
			c.logger.Warn("failed to clear credential store", "error", err)
		}
	}
	c.session.Disconnect()
	c.client.ClearToken()
	c.setState(models.AuthState{Status: models.LoggedOut})
	return err
}

// Username returns the account bound to the live session.
func (c *Coordinator) Username() string {
	return c.session.Username()
}

// State returns the current [models.AuthState].
func (c *Coordinator) State() models.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s models.AuthState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Coordinator) save(creds *models.Credentials) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(creds); err != nil {
		c.logger.Warn("failed to save credentials", "error", err)
	}
}

func connectKind(err error) shared.ErrorKind {
	switch {
	case services.StatusOf(err) == http.StatusUnauthorized,
		errors.Is(err, shared.ErrMissingCredentials),
		errors.Is(err, shared.ErrRefreshFailed):
		return shared.KindUnauthenticated
	default:
		return shared.KindTransport
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/auth"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/player"
	"github.com/desertthunder/taan/internal/repositories"
	"github.com/desertthunder/taan/internal/services"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	paths      shared.Paths
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Paths      shared.Paths
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		timeout := time.Duration(opts.Config.API.TimeoutSeconds) * time.Second
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	if opts.ConfigPath == "" && opts.Paths.ConfigDir != "" {
		opts.ConfigPath = opts.Paths.ConfigFile()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		paths:      opts.Paths,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, playCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequently built components.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the cache database if a command opened it.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens the metadata cache on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	r.db = db
	return db, nil
}

// stack is the auth context and REST client shared by every command that talks to Spotify.
type stack struct {
	session *services.SpotifySession
	client  *services.SpotifyClient
	auth    *auth.Coordinator
}

func (r *Runner) newStack(onState func(models.AuthState)) (*stack, error) {
	oauthConfig, err := services.OAuthConfig(r.config.Credentials.Spotify)
	if err != nil {
		return nil, err
	}
	store, err := auth.NewStore(r.config.Cache)
	if err != nil {
		return nil, err
	}

	session := services.NewSpotifySession(oauthConfig, r.httpClient, r.config.API.BaseURL, r.logger)
	client := services.NewSpotifyClient(services.ClientOpts{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		RateLimit:  r.config.API.RateLimit,
		Burst:      r.config.API.Burst,
		Logger:     r.logger,
	})
	login := &auth.BrowserLogin{
		Config: oauthConfig,
		Addr:   r.callbackAddr(),
		Logger: r.logger,
		Prompt: func(authURL string) {
			r.writePlain("Open this URL in your browser to log in:\n%s\n", authURL)
		},
	}

	coordinator := auth.NewCoordinator(&auth.Context{Session: session, Client: client}, auth.CoordinatorOpts{
		Store:   store,
		Login:   login.Run,
		Retry:   r.config.Retry,
		Logger:  r.logger,
		OnState: onState,
	})
	return &stack{session: session, client: client, auth: coordinator}, nil
}

// connect brings the stack up from cached credentials and records the session.
func (r *Runner) connect(ctx context.Context, s *stack) error {
	if err := s.auth.InitFromCache(ctx); err != nil {
		if shared.KindOf(err) == shared.KindUnauthenticated {
			return fmt.Errorf("%w (run 'taan auth login')", err)
		}
		return err
	}
	r.recordSession(s, "cache")
	return nil
}

func (r *Runner) recordSession(s *stack, source string) {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("session not recorded", "error", err)
		return
	}
	if _, err := repositories.NewSessionRepository(db).Record(s.session.Snapshot(), source); err != nil {
		r.logger.Warn("session not recorded", "error", err)
	}
}

// fetchTrack resolves a track through the REST client, deriving a new token when needed.
func (s *stack) fetchTrack(ctx context.Context, id string) (models.Track, error) {
	st, err := auth.CallWithRetry(ctx, s.auth, func(ctx context.Context) (*services.SpotifyTrack, error) {
		return s.client.Track(ctx, id)
	})
	if err != nil {
		return models.Track{}, err
	}
	return services.ToTrack(*st), nil
}

// callbackAddr is the OAuth callback listen address from [server], empty to follow the redirect URI.
func (r *Runner) callbackAddr() string {
	if r.config.Server.Host == "" || r.config.Server.Port == 0 {
		return ""
	}
	return net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
}

func (r *Runner) dialEngine(ctx context.Context) (*player.LibrespotEngine, error) {
	return player.Dial(ctx, player.Opts{
		Host:        r.config.Engine.Host,
		Port:        r.config.Engine.Port,
		DialTimeout: time.Duration(r.config.Engine.DialTimeoutSeconds) * time.Second,
		Logger:      r.logger,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.writeBytes(fmt.Appendf(nil, format, args...))
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writeBytes([]byte("\n" + fmt.Sprintf(format, args...) + "\n"))
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

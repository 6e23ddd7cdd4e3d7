package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Engine      EngineConfig      `toml:"engine"`
	API         APIConfig         `toml:"api"`
	Retry       RetryConfig       `toml:"retry"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the OAuth client registration.
//
// ClientSecret is optional: without it the login uses PKCE only.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// EngineConfig locates the go-librespot daemon that owns audio output.
type EngineConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	DialTimeoutSeconds int    `toml:"dial_timeout_seconds"`
}

// APIConfig tunes the REST client.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables throttling
	Burst          int     `toml:"burst"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// RetryConfig bounds the 401/429 retry loop. Zero values mean unbounded.
type RetryConfig struct {
	MaxAttempts    int `toml:"max_attempts"`
	MaxWaitSeconds int `toml:"max_wait_seconds"`
}

// MaxWait returns the cap applied to a single Retry-After suspension.
func (r RetryConfig) MaxWait() time.Duration {
	return time.Duration(r.MaxWaitSeconds) * time.Second
}

// CacheConfig selects where credentials and cover art live.
type CacheConfig struct {
	CredentialBackend string `toml:"credential_backend"` // keyring or file
	CredentialPath    string `toml:"credential_path"`
	CoverSize         int    `toml:"cover_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Resolve fills empty file locations from p.
func (c *Config) Resolve(p Paths) {
	if c.Database.Path == "" {
		c.Database.Path = p.DatabaseFile()
	}
	if c.Cache.CredentialPath == "" {
		c.Cache.CredentialPath = p.CredentialsFile()
	}
	if c.Log.File == "" {
		c.Log.File = p.LogFile()
	}
}

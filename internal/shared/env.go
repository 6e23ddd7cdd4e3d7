package shared

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config.toml values.
const (
	EnvClientID     = "TAAN_CLIENT_ID"
	EnvClientSecret = "TAAN_CLIENT_SECRET"
	EnvEnginePort   = "TAAN_ENGINE_PORT"
	EnvLogLevel     = "TAAN_LOG_LEVEL"
)

// ApplyEnv loads the given .env files (missing files are ignored) and applies overrides from the environment.
//
// Variables already present in the process environment win over .env values.
func ApplyEnv(c *Config, files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	if v := os.Getenv(EnvClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv(EnvEnginePort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Engine.Port = p
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

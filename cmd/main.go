package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/desertthunder/taan/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	paths := shared.DefaultPaths()

	config, configPath := loadConfig(paths)
	shared.ApplyEnv(config, ".env", filepath.Join(paths.ConfigDir, ".env"))
	config.Resolve(paths)
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Paths:      paths,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "taan",
		Usage:    "Spotify playback from the terminal, driven through a go-librespot daemon",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	runner.Close()

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// loadConfig prefers ./config.toml, then the per-user config file, then the embedded defaults.
//
// The returned path is where `setup config` writes.
func loadConfig(paths shared.Paths) (*shared.Config, string) {
	for _, path := range []string{"config.toml", paths.ConfigFile()} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if config, err := shared.LoadConfig(path); err == nil {
			return config, path
		}
	}
	return shared.DefaultConfig(), paths.ConfigFile()
}

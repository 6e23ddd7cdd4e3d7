package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/taan/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the metadata cache and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.database()
	if err != nil {
		return err
	}

	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.writePlain("✓ Database ready: %s\n", r.config.Database.Path)
	for _, m := range applied {
		mark := "✓"
		if !m.Applied {
			mark = "✗"
		}
		r.writePlain("  %s %04d %s\n", mark, m.Version, m.Name)
	}
	return nil
}

// SetupConfig writes the default config.toml.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: --path", shared.ErrMissingArgument)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id (or %s)\n", shared.EnvClientID)
	r.writePlain("2. Start go-librespot with its API server on %s:%d\n", r.config.Engine.Host, r.config.Engine.Port)
	r.writePlain("3. Run 'taan auth login'\n")
	return nil
}

// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/taan/internal/formatter"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, csv, md or json",
		Value:   formatter.FormatText,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the metadata cache and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the file (default: the per-user config directory)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in through the browser and store the credentials",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Connect with stored credentials and show recent sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "history",
						Usage: "Number of recorded sessions to show",
						Value: 5,
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget stored credentials",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand handles playlist browsing
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse your Spotify playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Index of the first playlist",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist's tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to fetch",
						Value: 100,
					},
					formatFlag(),
				},
				Action: r.PlaylistsShow,
			},
		},
	}
}

// playCommand starts a track on the playback daemon
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a track on the go-librespot daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "track",
				Aliases:  []string{"t"},
				Usage:    "Track ID or spotify:track URI",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "follow",
				Usage: "Keep running and print playback changes",
			},
		},
		Action: r.Play,
	}
}

// cacheCommand inspects the local metadata cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local metadata cache",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List cached tracks, most recent first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only tracks by this artist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks",
						Value: 50,
					},
					formatFlag(),
				},
				Action: r.CacheTracks,
			},
			{
				Name:  "playlists",
				Usage: "List cached playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Only playlists owned by this user",
					},
				},
				Action: r.CachePlaylists,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.TUI,
	}
}

package shared

import (
	"path/filepath"

	"github.com/20after4/configdir"
)

// AppName names the keyring service and the per-user directories.
const AppName = "taan"

// Paths holds the per-user configuration and cache directories.
type Paths struct {
	ConfigDir string
	CacheDir  string
}

// DefaultPaths resolves the platform config and cache directories for [AppName].
func DefaultPaths() Paths {
	return Paths{
		ConfigDir: configdir.LocalConfig(AppName),
		CacheDir:  configdir.LocalCache(AppName),
	}
}

// Ensure creates both directories.
func (p Paths) Ensure() error {
	return configdir.MakePath(p.ConfigDir, p.CacheDir)
}

func (p Paths) ConfigFile() string      { return filepath.Join(p.ConfigDir, "config.toml") }
func (p Paths) CredentialsFile() string { return filepath.Join(p.ConfigDir, "credentials.json") }
func (p Paths) DatabaseFile() string    { return filepath.Join(p.CacheDir, "taan.db") }
func (p Paths) LogFile() string         { return filepath.Join(p.CacheDir, "taan.log") }
